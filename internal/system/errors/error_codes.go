/*
 * Copyright (c) 2026, WSO2 LLC. (http://www.wso2.com).
 *
 * WSO2 LLC. licenses this file to you under the Apache License,
 * Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing,
 * software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
 * KIND, either express or implied.  See the License for the
 * specific language governing permissions and limitations
 * under the License.
 */

package errors

const errorPrefix = "IAF-"

var (
	// Server error codes

	TOKEN_FETCH_FAILED = ErrorMessage{
		Code:    errorPrefix + "15001",
		Message: "Error while fetching an access token from the identity platform.",
	}

	GET_IDENTITY_FAILED = ErrorMessage{
		Code:    errorPrefix + "15002",
		Message: "Error while fetching identity document(s).",
	}

	GET_ACCOUNT_FAILED = ErrorMessage{
		Code:    errorPrefix + "15003",
		Message: "Error while fetching account(s).",
	}

	CORRELATE_ACCOUNT_FAILED = ErrorMessage{
		Code:    errorPrefix + "15004",
		Message: "Error while correlating an account to an identity.",
	}

	AGGREGATION_FAILED = ErrorMessage{
		Code:    errorPrefix + "15005",
		Message: "Error while triggering or querying account aggregation.",
	}

	GET_SCHEMA_FAILED = ErrorMessage{
		Code:    errorPrefix + "15006",
		Message: "Error while fetching schema(s) from the identity platform.",
	}

	UPDATE_SCHEMA_FAILED = ErrorMessage{
		Code:    errorPrefix + "15007",
		Message: "Error while creating or updating a schema.",
	}

	WORKFLOW_FAILED = ErrorMessage{
		Code:    errorPrefix + "15008",
		Message: "Error while managing or triggering a workflow.",
	}

	FORM_FAILED = ErrorMessage{
		Code:    errorPrefix + "15009",
		Message: "Error while managing review or edit forms.",
	}

	SEARCH_FAILED = ErrorMessage{
		Code:    errorPrefix + "15010",
		Message: "Error while executing a platform search query.",
	}

	MERGE_FAILED = ErrorMessage{
		Code:    errorPrefix + "15011",
		Message: "Error while resolving merged attributes for a fusion account.",
	}

	REMOTE_CALL_FAILED = ErrorMessage{
		Code:    errorPrefix + "15012",
		Message: "Remote call to the identity platform failed.",
	}

	REMOTE_CALL_TIMEOUT = ErrorMessage{
		Code:    errorPrefix + "15013",
		Message: "Remote call to the identity platform timed out.",
	}

	RETRIES_EXHAUSTED = ErrorMessage{
		Code:    errorPrefix + "15014",
		Message: "Task failed after exhausting its retry budget.",
	}

	// Client error codes

	FUSION_ACCOUNT_NOT_FOUND = ErrorMessage{
		Code:    errorPrefix + "16001",
		Message: "Fusion account not found.",
	}

	IDENTITY_NOT_FOUND = ErrorMessage{
		Code:    errorPrefix + "16002",
		Message: "Identity not found.",
	}

	ACCOUNT_NOT_FOUND = ErrorMessage{
		Code:    errorPrefix + "16003",
		Message: "Source account not found.",
	}

	SCHEMA_NOT_FOUND = ErrorMessage{
		Code:    errorPrefix + "16004",
		Message: "Schema not found.",
	}

	SOURCE_OWNER_MISSING = ErrorMessage{
		Code:    errorPrefix + "16005",
		Message: "No owner is configured for the fusion source.",
	}

	REVIEWER_MISSING = ErrorMessage{
		Code:    errorPrefix + "16006",
		Message: "No reviewer is configured for review cases.",
	}

	INVALID_CONFIGURATION = ErrorMessage{
		Code:    errorPrefix + "16007",
		Message: "Invalid fusion connector configuration.",
	}

	UUID_POOL_EXHAUSTED = ErrorMessage{
		Code:    errorPrefix + "16008",
		Message: "Could not allocate a unique UUID for a fusion account.",
	}
)

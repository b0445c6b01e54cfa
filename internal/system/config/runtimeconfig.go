/*
 * Copyright (c) 2025, WSO2 LLC. (http://www.wso2.com).
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

package config

import "sync"

// FusionRuntime holds the runtime configuration for the fusion connector.
type FusionRuntime struct {
	FusionHome string `yaml:"fusion_home"`
	Config     Config `yaml:"config"`
}

var (
	runtimeConfig *FusionRuntime
	once          sync.Once
)

// InitializeFusionRuntime initializes the FusionRuntime configuration.
func InitializeFusionRuntime(fusionHome string, config *Config) error {

	once.Do(func() {
		runtimeConfig = &FusionRuntime{
			FusionHome: fusionHome,
			Config:     *config,
		}
	})

	return nil
}

// GetFusionRuntime returns the FusionRuntime configuration.
func GetFusionRuntime() *FusionRuntime {

	if runtimeConfig == nil {
		panic("FusionRuntime is not initialized")
	}
	return runtimeConfig
}

// OverrideFusionRuntime replaces the runtime configuration. Test use only.
func OverrideFusionRuntime(conf Config) {
	runtimeConfig = &FusionRuntime{
		Config: conf,
	}
}

/*
 * Copyright (c) 2025-2026, WSO2 LLC. (http://www.wso2.com).
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

package main

import (
	"context"
	"encoding/json"
	"flag"
	stdlog "log"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"github.com/wso2/identity-account-fusion/internal/fusion/run"
	"github.com/wso2/identity-account-fusion/internal/system/client"
	"github.com/wso2/identity-account-fusion/internal/system/config"
	"github.com/wso2/identity-account-fusion/internal/system/log"
	"github.com/wso2/identity-account-fusion/internal/system/queue"
)

const configFile = "/repository/conf/deployment.yaml"

func main() {
	fusionHome := getFusionHome()

	envFiles, _ := filepath.Glob("config/*.env")
	_ = godotenv.Load(envFiles...)

	// Load the configuration file.
	cfg, err := config.LoadConfig(fusionHome, configFile)
	if err != nil {
		stdlog.Fatalf("Failed to load configuration: %v", err)
	}
	if err := config.InitializeFusionRuntime(fusionHome, cfg); err != nil {
		stdlog.Fatalf("Failed to initialize fusion runtime: %v", err)
	}
	if err := log.Init(cfg.Log.LogLevel); err != nil {
		stdlog.Fatalf("Failed to initialize logger: %v", err)
	}
	logger := log.GetLogger()

	ctx := context.Background()

	q := queue.New(queue.Options{
		RequestsPerSecond:     cfg.Queue.RequestsPerSecond,
		MaxConcurrentRequests: cfg.Queue.MaxConcurrentRequests,
		MaxRetries:            cfg.Queue.MaxRetries,
		CallTimeout:           time.Duration(cfg.Platform.CallTimeout) * time.Second,
		StatsInterval:         time.Duration(cfg.Queue.StatsInterval) * time.Second,
	})
	q.Start(ctx)
	defer q.Stop()

	platform := client.NewPlatformClient(*cfg, q)
	runner := run.NewRunner(cfg, platform, q)

	results := make(chan Result)
	done := make(chan struct{})
	go func() {
		defer close(done)
		emitResults(results)
	}()

	err = runner.Run(ctx, results)
	<-done
	if err != nil {
		logger.Fatal("Fusion run failed", log.Error(err))
	}
}

// Result aliases the run output for the emitter below.
type Result = run.Result

// emitResults streams each finalized fusion account to stdout as one
// JSON document per line, in the order batches complete.
func emitResults(results <-chan Result) {
	encoder := json.NewEncoder(os.Stdout)
	for result := range results {
		payload := map[string]interface{}{
			"action":     string(result.Action),
			"attributes": run.RenderFusionAccount(&result.Account),
		}
		if result.Analysis != "" {
			payload["analysis"] = result.Analysis
		}
		if err := encoder.Encode(payload); err != nil {
			log.GetLogger().Error("Failed to emit result", log.Error(err))
		}
	}
}

func getFusionHome() string {

	// Parse project directory from command line arguments.
	fusionHomeFlag := flag.String("fusionHome", "", "Path to the account fusion home directory")
	flag.Parse()

	if *fusionHomeFlag != "" {
		return *fusionHomeFlag
	}
	dir, err := os.Getwd()
	if err != nil {
		stdlog.Fatalf("Failed to get current working directory: %v", err)
	}
	return dir
}

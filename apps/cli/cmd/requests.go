package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abdul-hamid-achik/hitflow/packages/core/env"
	"github.com/abdul-hamid-achik/hitflow/packages/http"
)

// Flags shared by the chain and bulk commands
var (
	envFlag      string
	envFileFlag  string
	timeoutFlag  string
	proxyFlag    string
	insecureFlag bool
)

func addRequestFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&envFlag, "env", "e", getEnvString("HITFLOW_ENV", ""), "Environment from config to use (env: HITFLOW_ENV)")
	cmd.Flags().StringVar(&envFileFlag, "env-file", getEnvString("HITFLOW_ENV_FILE", ""), "Path to .env file for variable interpolation (env: HITFLOW_ENV_FILE)")
	cmd.Flags().StringVar(&timeoutFlag, "timeout", getEnvString("HITFLOW_TIMEOUT", ""), "Request timeout (e.g., 30s, 1m) (env: HITFLOW_TIMEOUT)")
	cmd.Flags().StringVar(&proxyFlag, "proxy", getEnvString("HITFLOW_PROXY", ""), "Proxy URL for HTTP requests (env: HITFLOW_PROXY)")
	cmd.Flags().BoolVarP(&insecureFlag, "insecure", "k", getEnvBool("HITFLOW_INSECURE", false), "Disable SSL certificate validation (env: HITFLOW_INSECURE)")
	cmd.Flags().BoolVarP(&watchFlag, "watch", "w", false, "Watch plan files for changes and re-run")
}

// newRequestClient builds the HTTP client for chain and bulk requests from
// config, with request flags taking precedence
func newRequestClient(s *session, rps float64) (*http.Client, error) {
	timeout := time.Duration(s.cfg.Timeout) * time.Millisecond
	if timeoutFlag != "" {
		d, err := time.ParseDuration(timeoutFlag)
		if err != nil {
			return nil, exitWith(ExitUsageError, fmt.Errorf("invalid timeout %q: %w", timeoutFlag, err))
		}
		timeout = d
	}

	proxy := s.cfg.Proxy
	if proxyFlag != "" {
		proxy = proxyFlag
	}

	return http.NewClient(
		http.WithTimeout(timeout),
		http.WithValidateSSL(s.cfg.GetValidateSSL() && !insecureFlag),
		http.WithProxy(proxy),
		http.WithDefaultHeaders(s.cfg.Headers),
		http.WithRateLimit(rps),
	), nil
}

// loadVariables layers plan variables, the selected config environment and
// the .env file, later sources winning
func loadVariables(s *session, planVars env.Variables) (env.Variables, error) {
	envName := envFlag
	if envName == "" {
		envName = s.cfg.DefaultEnvironment
	}
	envVars, err := env.LoadEnvironment(envName, s.cfg.Environments)
	if err != nil {
		return nil, exitWith(ExitConfigError, err)
	}

	envFile := envFileFlag
	if envFile == "" {
		envFile = s.cfg.EnvFile
	}
	var fileVars env.Variables
	if envFile != "" {
		fileVars, err = env.LoadDotEnv(envFile)
		if err != nil {
			return nil, exitWith(ExitConfigError, err)
		}
	}

	vars := env.MergeVariables(planVars, envVars, fileVars)
	s.logger.Debug("variables loaded",
		zap.String("environment", envName),
		zap.String("envFile", envFile),
		zap.Int("count", len(vars)))
	return vars, nil
}

// decodeBody returns the JSON body when it parses, the raw text otherwise.
// Servers that omit the JSON content type still get a parse attempt.
func decodeBody(resp *http.Response) any {
	if len(resp.Body) == 0 {
		return nil
	}
	v, err := resp.BodyJSON()
	if err != nil {
		if resp.IsJSON() {
			zap.L().Debug("response declared JSON but did not parse", zap.Error(err))
		}
		return resp.BodyString()
	}
	return v
}

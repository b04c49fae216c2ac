package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alnah/go-contentflow/internal/config"
)

// ConfigCmd creates the config command with subcommands.
// The env parameter provides injectable dependencies for testing.
func ConfigCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration settings",
		Long: `Manage persistent configuration settings.

Configuration is stored in ~/.config/contentflow/config.yaml
($XDG_CONFIG_HOME/contentflow/config.yaml when set).
Any key can be overridden with CONTENTFLOW_<SECTION>_<KEY>, for example
CONTENTFLOW_SERVER_PORT=9090. The API key also reads OPENAI_API_KEY.

Keys:
  ` + strings.Join(config.Keys(), "\n  "),
		Example: `  contentflow config set app.env development
  contentflow config set server.cors_origins https://app.example,https://admin.example
  contentflow config get llm.model_prod
  contentflow config list`,
	}

	cmd.AddCommand(configSetCmd(env))
	cmd.AddCommand(configGetCmd(env))
	cmd.AddCommand(configListCmd(env))

	return cmd
}

// configSetCmd creates the "config set" subcommand.
func configSetCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long: `Set a configuration value in the config file.

The value is checked against the key's type before it is written.
The config directory and file are created if they don't exist.`,
		Example: `  contentflow config set server.port 9090
  contentflow config set recycle.extract_hashtags true`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigSet(env, args[0], args[1])
		},
	}
}

// configGetCmd creates the "config get" subcommand.
func configGetCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Long: `Get the effective value of a key: environment, then file, then default.

Prints the value to stdout, or an empty line if unset.`,
		Example: `  contentflow config get app.env`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigGet(env, args[0])
		},
	}
}

// configListCmd creates the "config list" subcommand.
func configListCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all configuration values",
		Long: `List the effective value of every key. Secrets are masked.`,
		Example: `  contentflow config list`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigList(env)
		},
	}
}

// runConfigSet handles the "config set" command.
func runConfigSet(env *Env, key, value string) error {
	if err := config.Set(key, value); err != nil {
		return err
	}

	shown := value
	if isSecretKey(key) {
		shown = config.Mask(value)
	}
	fmt.Fprintf(env.Stderr, "Set %s = %s\n", key, shown)
	return nil
}

// runConfigGet handles the "config get" command.
func runConfigGet(env *Env, key string) error {
	value, err := config.Get(key)
	if err != nil {
		return err
	}
	fmt.Fprintln(env.Stdout, value)
	return nil
}

// runConfigList handles the "config list" command.
func runConfigList(env *Env) error {
	data, err := config.List()
	if err != nil {
		return err
	}

	for _, key := range config.Keys() {
		fmt.Fprintf(env.Stdout, "%s=%s\n", key, data[key])
	}
	return nil
}

// isSecretKey reports whether key holds a credential.
func isSecretKey(key string) bool {
	return strings.HasSuffix(key, "api_key") || strings.HasSuffix(key, "password")
}

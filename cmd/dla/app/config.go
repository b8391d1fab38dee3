package app

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/datalayer/datalayer-go/pkg/config"
)

// configKeys maps the settable dotted keys onto the config structure.
var configKeys = map[string]struct {
	get func(*config.Config) string
	set func(*config.Config, string) error
}{
	"run-url": {
		get: func(c *config.Config) string { return c.RunURL },
		set: func(c *config.Config, v string) error { c.RunURL = v; return nil },
	},
	"iam-url": {
		get: func(c *config.Config) string { return c.IAMURL },
		set: func(c *config.Config, v string) error { c.IAMURL = v; return nil },
	},
	"credentials.store-type": {
		get: func(c *config.Config) string { return c.Credentials.StoreType },
		set: func(c *config.Config, v string) error {
			if v != "keyring" && v != "encrypted" {
				return fmt.Errorf("unknown credential store type %q", v)
			}
			c.Credentials.StoreType = v
			return nil
		},
	},
	"oauth.issuer": {
		get: func(c *config.Config) string { return c.OAuth.Issuer },
		set: func(c *config.Config, v string) error { c.OAuth.Issuer = v; return nil },
	},
	"oauth.client-id": {
		get: func(c *config.Config) string { return c.OAuth.ClientID },
		set: func(c *config.Config, v string) error { c.OAuth.ClientID = v; return nil },
	},
	"oauth.callback-port": {
		get: func(c *config.Config) string { return strconv.Itoa(c.OAuth.CallbackPort) },
		set: func(c *config.Config, v string) error {
			port, err := strconv.Atoi(v)
			if err != nil || port < 0 || port > 65535 {
				return fmt.Errorf("invalid port %q", v)
			}
			c.OAuth.CallbackPort = port
			return nil
		},
	},
	"chat.agent-url": {
		get: func(c *config.Config) string { return c.Chat.AgentURL },
		set: func(c *config.Config, v string) error { c.Chat.AgentURL = v; return nil },
	},
	"chat.model": {
		get: func(c *config.Config) string { return c.Chat.Model },
		set: func(c *config.Config, v string) error { c.Chat.Model = v; return nil },
	},
}

func knownConfigKeys() []string {
	keys := make([]string, 0, len(configKeys))
	for key := range configKeys {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func newConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the Datalayer configuration",
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show the current configuration",
		RunE: func(_ *cobra.Command, _ []string) error {
			return printJSONOutput(config.GetConfig())
		},
	}

	getCmd := &cobra.Command{
		Use:   "get [key]",
		Short: "Print a single configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			entry, ok := configKeys[args[0]]
			if !ok {
				return fmt.Errorf("unknown key %q (known keys: %v)", args[0], knownConfigKeys())
			}
			fmt.Println(entry.get(config.GetConfig()))
			return nil
		},
	}

	setCmd := &cobra.Command{
		Use:   "set [key] [value]",
		Short: "Set a configuration value",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			entry, ok := configKeys[args[0]]
			if !ok {
				return fmt.Errorf("unknown key %q (known keys: %v)", args[0], knownConfigKeys())
			}

			var setErr error
			err := config.UpdateConfig(func(cfg *config.Config) {
				setErr = entry.set(cfg, args[1])
			})
			if setErr != nil {
				return setErr
			}
			if err != nil {
				return fmt.Errorf("failed to update configuration: %w", err)
			}
			fmt.Printf("%s set to %s\n", args[0], args[1])
			return nil
		},
	}

	cmd.AddCommand(showCmd)
	cmd.AddCommand(getCmd)
	cmd.AddCommand(setCmd)
	return cmd
}

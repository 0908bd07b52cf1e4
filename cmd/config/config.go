/*
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at

     https://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

package config

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"

	pkgconfig "github.com/servolab/go-servo/pkg/config"
)

const (
	ForceOptionName = "force"
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the go-servo configuration file",
	}
	cmd.AddCommand(NewInitCommand())
	cmd.AddCommand(NewShowCommand())
	return cmd
}

// NewInitCommand writes the default configuration file.
func NewInitCommand() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := pkgconfig.NewDefaultConfig()
			if err := cfg.Persist(force); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Config written to %s\n", pkgconfig.DefaultConfigPath())
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, ForceOptionName, false, "Overwrite an existing config file")
	return cmd
}

// NewShowCommand prints the effective configuration.
func NewShowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := pkgconfig.NewDefaultConfig()
			if err := cfg.Load(); err != nil {
				return err
			}
			data, err := yaml.Marshal(cfg)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
	return cmd
}

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

package monitor

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/servolab/go-servo/pkg/command"
	"github.com/servolab/go-servo/pkg/config"
)

// NewActionCommand builds the enable/disable commands, they differ
// only in the action name.
func NewActionCommand(action, short string) *cobra.Command {
	var drive string
	cfg := config.NewDefaultConfig()
	cfg.Load()
	cmd := &cobra.Command{
		Use:   action,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient := command.NewApiClient(cfg)
			return apiClient.MonitoringAction(drive, action)
		},
	}
	cmd.Flags().StringVar(&drive, DriveOptionName, "", "Drive name")
	cmd.MarkFlagRequired(DriveOptionName)

	return cmd
}

// NewStopCommand asks a running read loop to return early.
func NewStopCommand() *cobra.Command {
	var drive string
	cfg := config.NewDefaultConfig()
	cfg.Load()
	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop a running capture read",
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient := command.NewApiClient(cfg)
			return apiClient.MonitoringStop(drive)
		},
	}
	cmd.Flags().StringVar(&drive, DriveOptionName, "", "Drive name")
	cmd.MarkFlagRequired(DriveOptionName)

	return cmd
}

// NewTriggerCommand fires the software trigger of the configured
// session.
func NewTriggerCommand() *cobra.Command {
	var drive string
	var timeout float64
	cfg := config.NewDefaultConfig()
	cfg.Load()
	cmd := &cobra.Command{
		Use:   "trigger",
		Short: "Fire the software trigger",
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient := command.NewApiClient(cfg)
			triggered, err := apiClient.ForceTrigger(drive, timeout)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "triggered: %v\n", triggered)
			return nil
		},
	}
	cmd.Flags().StringVar(&drive, DriveOptionName, "", "Drive name")
	cmd.MarkFlagRequired(DriveOptionName)
	cmd.Flags().Float64Var(&timeout, TimeoutOptionName, 1, "Trigger timeout in seconds")

	return cmd
}

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

func NewStatusCommand() *cobra.Command {
	var drive string
	cfg := config.NewDefaultConfig()
	cfg.Load()
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show monitoring state",
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient := command.NewApiClient(cfg)
			status, err := apiClient.MonitoringStatus(drive)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "generation: %s\n", status.Generation)
			fmt.Fprintf(cmd.OutOrStdout(), "enabled: %v\n", status.Enabled)
			fmt.Fprintf(cmd.OutOrStdout(), "stage: %s\n", status.Stage)
			fmt.Fprintf(cmd.OutOrStdout(), "frame available: %v\n", status.FrameAvailable)
			return nil
		},
	}
	cmd.Flags().StringVar(&drive, DriveOptionName, "", "Drive name")
	cmd.MarkFlagRequired(DriveOptionName)

	return cmd
}

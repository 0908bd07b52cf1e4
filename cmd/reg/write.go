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

package reg

import (
	"github.com/spf13/cobra"

	"github.com/servolab/go-servo/pkg/command"
	"github.com/servolab/go-servo/pkg/config"
)

func NewWriteCommand() *cobra.Command {
	var drive, uid, value string
	var axis int
	cfg := config.NewDefaultConfig()
	cfg.Load()
	cmd := &cobra.Command{
		Use:   "write",
		Short: "Write value to register",
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient := command.NewApiClient(cfg)
			return apiClient.RegWrite(drive, uid, value, axis)
		},
	}
	cmd.Flags().StringVar(&drive, DriveOptionName, "", "Drive name")
	cmd.MarkFlagRequired(DriveOptionName)
	cmd.Flags().StringVar(&uid, UIDOptionName, "", "Register UID. E.g. MON_DIST_ENABLE")
	cmd.MarkFlagRequired(UIDOptionName)
	cmd.Flags().StringVar(&value, ValueOptionName, "", "Register value, decimal or hexadecimal")
	cmd.MarkFlagRequired(ValueOptionName)
	cmd.Flags().IntVar(&axis, AxisOptionName, 0, "Axis number, 0 for the global block")

	return cmd
}

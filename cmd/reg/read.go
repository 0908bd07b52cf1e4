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
	"fmt"

	"github.com/spf13/cobra"

	"github.com/servolab/go-servo/pkg/command"
	"github.com/servolab/go-servo/pkg/config"
)

func NewReadCommand() *cobra.Command {
	var drive, uid string
	var axis int
	var cached bool
	cfg := config.NewDefaultConfig()
	cfg.Load()
	cmd := &cobra.Command{
		Use:   "read",
		Short: "Read value from register",
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient := command.NewApiClient(cfg)
			var value string
			var err error
			if cached {
				value, err = apiClient.RegReadCached(drive, uid, axis)
			} else {
				value, err = apiClient.RegRead(drive, uid, axis)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s axis %d = %s\n", uid, axis, value)
			return nil
		},
	}
	cmd.Flags().StringVar(&drive, DriveOptionName, "", "Drive name")
	cmd.MarkFlagRequired(DriveOptionName)
	cmd.Flags().StringVar(&uid, UIDOptionName, "", "Register UID. E.g. MON_DIST_STATUS")
	cmd.MarkFlagRequired(UIDOptionName)
	cmd.Flags().IntVar(&axis, AxisOptionName, 0, "Axis number, 0 for the global block")
	cmd.Flags().BoolVar(&cached, CachedOptionName, false, "Read the last observed value instead of the drive")

	return cmd
}

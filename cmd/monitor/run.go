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
	"os"

	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"github.com/servolab/go-servo/pkg/command"
	"github.com/servolab/go-servo/pkg/config"
	"github.com/servolab/go-servo/pkg/srv"
)

// NewRunCommand configures a capture session and runs it to
// completion in one shot.
func NewRunCommand() *cobra.Command {
	var drive, mode, edge, signal, output string
	var registers []string
	var divider int
	var totalTime, triggerDelay, threshold, timeout float64
	cfg := config.NewDefaultConfig()
	cfg.Load()
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Configure a capture and read it to completion",
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient := command.NewApiClient(cfg)
			refs, err := command.ParseSignals(registers)
			if err != nil {
				return err
			}
			setup := &srv.MonitoringSetup{
				Registers:    refs,
				Divider:      divider,
				TotalTime:    totalTime,
				TriggerDelay: triggerDelay,
				Trigger: srv.TriggerSetup{
					Mode:      mode,
					Edge:      edge,
					Threshold: threshold,
				},
			}
			if signal != "" {
				sig, err := command.ParseSignal(signal)
				if err != nil {
					return err
				}
				setup.Trigger.Signal = sig
			}
			if err := apiClient.MonitoringSetup(drive, setup); err != nil {
				return err
			}
			if err := apiClient.MonitoringAction(drive, "enable"); err != nil {
				return err
			}
			defer apiClient.MonitoringAction(drive, "disable")

			data, err := apiClient.MonitoringRead(drive, timeout, mode == "forced")
			if err != nil {
				return err
			}
			out, err := yaml.Marshal(data)
			if err != nil {
				return err
			}
			if output != "" {
				return os.WriteFile(output, out, 0644)
			}
			fmt.Fprint(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
	cmd.Flags().StringVar(&drive, DriveOptionName, "", "Drive name")
	cmd.MarkFlagRequired(DriveOptionName)
	cmd.Flags().StringArrayVar(&registers, RegisterOptionName, nil, "Register to capture as UID:AXIS, repeatable")
	cmd.MarkFlagRequired(RegisterOptionName)
	cmd.Flags().IntVar(&divider, DividerOptionName, 1, "Sampling frequency divider")
	cmd.Flags().Float64Var(&totalTime, TotalTimeOptionName, 0.1, "Capture window in seconds")
	cmd.Flags().Float64Var(&triggerDelay, TriggerDelayOptionName, 0, "Trigger shift from the window centre in seconds")
	cmd.Flags().StringVar(&mode, ModeOptionName, "auto", "Trigger mode, one of auto/forced/edge")
	cmd.Flags().StringVar(&edge, EdgeOptionName, "rising", "Edge direction for edge triggers")
	cmd.Flags().StringVar(&signal, SignalOptionName, "", "Trigger signal as UID:AXIS for edge triggers")
	cmd.Flags().Float64Var(&threshold, ThresholdOptionName, 0, "Trigger threshold for edge triggers")
	cmd.Flags().Float64Var(&timeout, TimeoutOptionName, 10, "Trigger timeout in seconds, 0 to wait forever")
	cmd.Flags().StringVar(&output, OutputOptionName, "", "Write the capture to this file instead of stdout")

	return cmd
}

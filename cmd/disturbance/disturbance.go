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

package disturbance

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"github.com/servolab/go-servo/pkg/command"
	"github.com/servolab/go-servo/pkg/config"
	"github.com/servolab/go-servo/pkg/srv"
)

const (
	DriveOptionName   = "drive"
	FileOptionName    = "file"
	DividerOptionName = "divider"
)

// WaveformFile is the on-disk description of one playback: the target
// registers and one waveform per register.
type WaveformFile struct {
	Registers []string    `json:"registers"` // UID:AXIS
	Channels  [][]float64 `json:"channels"`
}

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "disturbance",
		Short: "Replay waveforms into drive setpoints",
	}
	cmd.AddCommand(NewLoadCommand())
	cmd.AddCommand(NewActionCommand("enable", "Enable waveform playback"))
	cmd.AddCommand(NewActionCommand("disable", "Disable waveform playback"))
	return cmd
}

// NewLoadCommand configures a playback session and pushes the
// waveforms from a YAML file.
func NewLoadCommand() *cobra.Command {
	var drive, file string
	var divider int
	cfg := config.NewDefaultConfig()
	cfg.Load()
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Load waveforms from a file into the drive buffer",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(file)
			if err != nil {
				return err
			}
			wf := &WaveformFile{}
			if err := yaml.Unmarshal(data, wf); err != nil {
				return err
			}
			refs, err := command.ParseSignals(wf.Registers)
			if err != nil {
				return err
			}
			apiClient := command.NewApiClient(cfg)
			setup := &srv.DisturbanceSetup{
				Registers: refs,
				Divider:   divider,
			}
			if err := apiClient.DisturbanceSetup(drive, setup); err != nil {
				return err
			}
			period, err := apiClient.DisturbanceWrite(drive, wf.Channels)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Waveforms loaded, sample period %g s\n", period)
			return nil
		},
	}
	cmd.Flags().StringVar(&drive, DriveOptionName, "", "Drive name")
	cmd.MarkFlagRequired(DriveOptionName)
	cmd.Flags().StringVar(&file, FileOptionName, "", "YAML file with registers and waveforms")
	cmd.MarkFlagRequired(FileOptionName)
	cmd.Flags().IntVar(&divider, DividerOptionName, 1, "Playback frequency divider")

	return cmd
}

// NewActionCommand builds the enable/disable commands.
func NewActionCommand(action, short string) *cobra.Command {
	var drive string
	cfg := config.NewDefaultConfig()
	cfg.Load()
	cmd := &cobra.Command{
		Use:   action,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient := command.NewApiClient(cfg)
			return apiClient.DisturbanceAction(drive, action)
		},
	}
	cmd.Flags().StringVar(&drive, DriveOptionName, "", "Drive name")
	cmd.MarkFlagRequired(DriveOptionName)

	return cmd
}

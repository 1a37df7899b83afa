/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"io"

	"github.com/notargets/gobeso/InputParameters"
	"github.com/notargets/gobeso/geometry"
	"github.com/notargets/gobeso/utils"
	"github.com/spf13/cobra"
)

// InfoCmd represents the info command
var InfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Print mesh statistics, volumes and centroid bounds",
	Long: `
Imports a CalculiX mesh and prints node and element counts per type, the
domains, the optimization domain volume and the bounding box of the element
centroids. Without a parameters file every element is optimized.

gobeso info -F mesh.inp [-I filter.yaml]`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		meshFile, _ := cmd.Flags().GetString("meshFile")
		paramsFile, _ := cmd.Flags().GetString("inputParametersFile")
		return RunInfo(meshFile, paramsFile, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(InfoCmd)
	InfoCmd.Flags().StringP("meshFile", "F", "", "Mesh file to read in CalculiX (.inp) format")
	InfoCmd.Flags().StringP("inputParametersFile", "I", "", "YAML file for filter parameters, only Domains is used")
}

func RunInfo(meshFile, paramsFile string, w io.Writer) (err error) {
	var (
		fp   *InputParameters.FilterParameters
		diag = utils.NewLogDiagnostics(nil)
	)
	if len(paramsFile) == 0 {
		fp = &InputParameters.FilterParameters{
			Domains: []InputParameters.DomainParameters{{ElSet: "EALL", Optimized: true}},
		}
	} else if fp, err = processInput(paramsFile, 0, ""); err != nil {
		return
	}
	m, err := readMesh(meshFile, fp, diag, false)
	if err != nil {
		return
	}
	m.PrintStatistics(w)
	vol := geometry.ComputeVolumes(m, diag)
	cg := geometry.ComputeCentroids(m, diag)
	box := cg.Bounds()
	fmt.Fprintf(w, "  Optimization domain volume: %g\n", vol.OptimizationTotal)
	if vol.Skipped > 0 || vol.Unassigned > 0 {
		fmt.Fprintf(w, "  Shell volumes skipped: %d with 0 thickness, %d outside every domain\n", vol.Skipped, vol.Unassigned)
	}
	fmt.Fprintf(w, "Centroid Bounding Box:\nXMin/XMax = %5.3f, %5.3f\nYMin/YMax = %5.3f, %5.3f\nZMin/ZMax = %5.3f, %5.3f\n",
		box.Min.X, box.Max.X, box.Min.Y, box.Max.Y, box.Min.Z, box.Max.Z)
	return
}

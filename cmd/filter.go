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
	"log"
	"os"
	"time"

	"github.com/notargets/gobeso/InputParameters"
	"github.com/notargets/gobeso/filter"
	"github.com/notargets/gobeso/geometry"
	"github.com/notargets/gobeso/mesh"
	"github.com/notargets/gobeso/readfiles"
	"github.com/notargets/gobeso/utils"
	"github.com/pkg/profile"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type ModelFilter struct {
	MeshFile        string
	ParametersFile  string
	SensitivityFile string
	OutputFile      string // Standard output when empty
	Iterations      int
	Profile         bool
	ProfilePath     string
	Verbose         bool
	// Overrides of the parameters file, unset when zero
	RMin       float64
	FilterType string
}

// FilterCmd represents the filter command
var FilterCmd = &cobra.Command{
	Use:   "filter",
	Short: "Filter element sensitivity numbers over a radius r_min",
	Long: `
Reads a CalculiX mesh, a YAML parameters file and element sensitivity numbers,
prepares the filter once and applies it, writing the filtered numbers.

gobeso filter -F mesh.inp -I filter.yaml -S sensitivity.csv -o filtered.csv`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		mf := &ModelFilter{}
		mf.MeshFile, _ = cmd.Flags().GetString("meshFile")
		mf.ParametersFile, _ = cmd.Flags().GetString("inputParametersFile")
		mf.SensitivityFile, _ = cmd.Flags().GetString("sensitivityFile")
		mf.OutputFile, _ = cmd.Flags().GetString("output")
		mf.Iterations, _ = cmd.Flags().GetInt("iterations")
		mf.Profile, _ = cmd.Flags().GetBool("profile")
		mf.ProfilePath, _ = cmd.Flags().GetString("profilePath")
		mf.Verbose, _ = cmd.Flags().GetBool("verbose")
		mf.RMin = viper.GetFloat64("rmin")
		mf.FilterType = viper.GetString("filterType")
		if mf.Profile {
			// Stop also runs on error returns
			defer profile.Start(profile.CPUProfile, profile.ProfilePath(mf.ProfilePath),
				profile.Quiet, profile.NoShutdownHook).Stop()
		}
		return RunFilter(mf, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(FilterCmd)
	FilterCmd.Flags().StringP("meshFile", "F", "", "Mesh file to read in CalculiX (.inp) format")
	FilterCmd.Flags().StringP("inputParametersFile", "I", "", "YAML file for filter parameters like:\n\t- RMin\n\t- FilterType\n\t- Domains")
	FilterCmd.Flags().StringP("sensitivityFile", "S", "", "CSV file of elementID,sensitivity records")
	FilterCmd.Flags().StringP("output", "o", "", "CSV file for the filtered sensitivities, standard output if empty")
	FilterCmd.Flags().IntP("iterations", "n", 1, "number of filter passes, each applied to the previous result")
	FilterCmd.Flags().Bool("profile", false, "write a CPU profile, cpu.pprof")
	FilterCmd.Flags().String("profilePath", ".", "directory for the CPU profile")
	FilterCmd.Flags().BoolP("verbose", "v", false, "print the mesh import report and parameters")
	FilterCmd.Flags().Float64("rmin", 0, "filter radius, overrides RMin of the parameters file")
	FilterCmd.Flags().String("filterType", "", "filter1 or filter2, overrides FilterType of the parameters file")
	_ = viper.BindPFlag("rmin", FilterCmd.Flags().Lookup("rmin"))
	_ = viper.BindPFlag("filterType", FilterCmd.Flags().Lookup("filterType"))
}

func processInput(paramsFile string, rmin float64, filterType string) (fp *InputParameters.FilterParameters, err error) {
	var (
		data []byte
	)
	if len(paramsFile) == 0 {
		return nil, fmt.Errorf("must supply an input parameters file (-I, --inputParametersFile), for example:%s",
			InputParameters.ExampleFile)
	}
	if data, err = os.ReadFile(paramsFile); err != nil {
		return nil, err
	}
	fp = &InputParameters.FilterParameters{}
	if err = fp.Parse(data); err != nil {
		return nil, fmt.Errorf("%s: %w", paramsFile, err)
	}
	if rmin != 0 {
		fp.RMin = rmin
	}
	if filterType != "" {
		fp.FilterType = filterType
	}
	if err = fp.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", paramsFile, err)
	}
	return
}

func readMesh(meshFile string, fp *InputParameters.FilterParameters, d utils.Diagnostics, verbose bool) (m *mesh.Mesh, err error) {
	var (
		model *readfiles.InpModel
	)
	if len(meshFile) == 0 {
		return nil, fmt.Errorf("must supply a mesh file (-F, --meshFile) in CalculiX (.inp) format")
	}
	if model, err = readfiles.ReadInpFile(meshFile, verbose); err != nil {
		return
	}
	model.ReportSkipped(d)
	return model.BuildMesh(fp.MeshDomains())
}

// RunFilter prepares the filter for the mesh and parameters of mf and applies
// it mf.Iterations times to the sensitivity numbers
func RunFilter(mf *ModelFilter, w io.Writer) (err error) {
	var (
		fp    *InputParameters.FilterParameters
		m     *mesh.Mesh
		sn    filter.SensitivityMap
		fc    *filter.Context
		ft    filter.Type
		diag  = utils.NewLogDiagnostics(nil)
		NP    = utils.ParallelDegree()
		start time.Time
	)
	if fp, err = processInput(mf.ParametersFile, mf.RMin, mf.FilterType); err != nil {
		return
	}
	if mf.Verbose {
		fp.Print(w)
	}
	if fp.ParallelDegree > 0 {
		NP = fp.ParallelDegree
	}
	if len(mf.SensitivityFile) == 0 {
		return fmt.Errorf("must supply a sensitivity file (-S, --sensitivityFile) of elementID,sensitivity records")
	}
	if m, err = readMesh(mf.MeshFile, fp, diag, mf.Verbose); err != nil {
		return
	}
	if sn, err = readfiles.ReadSensitivityFile(mf.SensitivityFile); err != nil {
		return
	}
	ft, _ = fp.Type()
	start = time.Now()
	cg := geometry.ComputeCentroidsNP(m, diag, NP)
	if fc, err = filter.PrepareNP(m, cg, fp.RMin, ft, diag, NP); err != nil {
		return
	}
	log.Printf("%s with r_min = %g prepared for %d optimization elements in %v\n",
		ft, fp.RMin, len(m.Optimization()), time.Since(start))
	iterations := mf.Iterations
	if iterations < 1 {
		iterations = 1
	}
	start = time.Now()
	for i := 0; i < iterations; i++ {
		if sn, err = fc.Run(sn); err != nil {
			return
		}
	}
	log.Printf("%d filter passes in %v\n", iterations, time.Since(start))
	if mf.Verbose {
		log.Println(utils.GetMemUsage())
	}
	if len(mf.OutputFile) == 0 {
		return readfiles.WriteSensitivity(w, sn)
	}
	return readfiles.WriteSensitivityFile(mf.OutputFile, sn)
}

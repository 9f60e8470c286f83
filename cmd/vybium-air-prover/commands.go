package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vybium/vybium-stack-air/internal/vybium-stack-air/trace"
	vybiumstackair "github.com/vybium/vybium-stack-air/pkg/vybium-stack-air"
)

var runCmd = &cobra.Command{
	Use:   "run program_file",
	Short: "Execute a program and print the final stack.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		program, err := readProgram(cmd, args[0])
		if err != nil {
			return err
		}

		machine := vybiumstackair.NewVM()
		result, err := machine.Execute(program)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		state := machine.GetState()
		fmt.Fprintf(out, "cycles: %d\n", result.CycleCount)
		for i, v := range state.Stack {
			fmt.Fprintf(out, "st%d: %s\n", i, v.String())
		}
		return nil
	},
}

var traceCmd = &cobra.Command{
	Use:   "trace program_file",
	Short: "Print the padded trace of a program and check its constraints.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		program, err := readProgram(cmd, args[0])
		if err != nil {
			return err
		}

		t, err := vybiumstackair.BuildTrace(program)
		if err != nil {
			return err
		}

		out, flush := traceWriter(cmd.OutOrStdout())
		fmt.Fprintf(out, "row\t%s\n", strings.Join(trace.ColumnNames[:], "\t"))
		for i := 0; i < t.Height(); i++ {
			cells := make([]string, t.Width())
			for j, v := range t.Row(i) {
				cells[j] = v.String()
			}
			marker := ""
			if t.IsPadding(i) {
				marker = "\t(pad)"
			}
			fmt.Fprintf(out, "%d\t%s%s\n", i, strings.Join(cells, "\t"), marker)
		}
		if err := flush(); err != nil {
			return err
		}

		if getFlag(cmd, "check") {
			if err := vybiumstackair.CheckTrace(t); err != nil {
				return err
			}
			log.Infof("all constraints hold on %d rows", t.Height())
		}
		return nil
	},
}

// traceWriter aligns columns when writing to a terminal and leaves the
// output tab separated otherwise
func traceWriter(w io.Writer) (io.Writer, func() error) {
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
		return tw, tw.Flush
	}
	return w, func() error { return nil }
}

var proveCmd = &cobra.Command{
	Use:   "prove program_file",
	Short: "Prove a program's execution and write the JSON proof.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := configFromFlags(cmd)
		if err != nil {
			return err
		}
		program, err := readProgram(cmd, args[0])
		if err != nil {
			return err
		}

		prover, err := vybiumstackair.NewProver(config)
		if err != nil {
			return err
		}
		proof, err := prover.ProveProgram(cmd.Context(), program)
		if err != nil {
			return err
		}

		data, err := vybiumstackair.MarshalProof(proof)
		if err != nil {
			return err
		}

		if output := getString(cmd, "output"); output != "" {
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return err
			}
			log.Infof("proof for 2^%d rows written to %s", proof.Log2Height(), output)
			return nil
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return err
	},
}

var verifyCmd = &cobra.Command{
	Use:   "verify proof_file",
	Short: "Verify a JSON proof.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := configFromFlags(cmd)
		if err != nil {
			return err
		}
		data, err := readInput(cmd, args[0])
		if err != nil {
			return err
		}
		proof, err := vybiumstackair.ParseProof(data)
		if err != nil {
			return err
		}

		result := vybiumstackair.VerifyProof(config, proof)
		if !result.Valid {
			return result.Err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "proof is valid (%d ms)\n", result.VerificationTimeMs)
		return nil
	},
}

var constraintsCmd = &cobra.Command{
	Use:   "constraints",
	Short: "List the constraints as symbolic expressions.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		constraints := vybiumstackair.Constraints()
		names := make([]string, 0, len(constraints))
		for name := range constraints {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", name, constraints[name])
		}
	},
}

func init() {
	traceCmd.Flags().Bool("check", true, "evaluate the constraints over the trace")
	proveCmd.Flags().StringP("output", "o", "", "write the proof to a file instead of stdout")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(traceCmd)
	rootCmd.AddCommand(proveCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(constraintsCmd)
}

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	vybiumstackair "github.com/vybium/vybium-stack-air/pkg/vybium-stack-air"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "vybium-air-prover",
	Short: "Execute, trace and prove four-slot stack machine programs.",
	Long: `Execute, trace and prove four-slot stack machine programs.
	Programs are read from a file (or "-" for stdin) either as text,
	e.g. "push(10) push(20) add", or as JSON {"instructions": [...]}.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if getFlag(cmd, "verbose") {
			log.SetLevel(log.DebugLevel)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "increase logging verbosity")
	rootCmd.PersistentFlags().Int("queries", 0, "number of queried rows (0 uses the default)")
	rootCmd.PersistentFlags().Int("blowup-log", 0, "log2 of the blow-up factor (0 uses the default)")
	rootCmd.PersistentFlags().Int("pow-bits", -1, "proof-of-work difficulty in bits (-1 uses the default)")
	rootCmd.PersistentFlags().String("hash", "", "transcript hash: sha3, sha256 or poseidon")
	rootCmd.PersistentFlags().Int("max-log2-height", 0, "largest accepted trace as log2 rows (0 uses the default)")
	rootCmd.PersistentFlags().Bool("fast", false, "start from cheap test parameters instead of the defaults")
}

// ProgramInput is the JSON program format
type ProgramInput struct {
	Instructions []string `json:"instructions"`
}

func getFlag(cmd *cobra.Command, flag string) bool {
	r, err := cmd.Flags().GetBool(flag)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	return r
}

func getInt(cmd *cobra.Command, flag string) int {
	r, err := cmd.Flags().GetInt(flag)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	return r
}

func getString(cmd *cobra.Command, flag string) string {
	r, err := cmd.Flags().GetString(flag)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	return r
}

// configFromFlags starts from the default (or test) parameters and applies
// every flag the user set
func configFromFlags(cmd *cobra.Command) (*vybiumstackair.Config, error) {
	config := vybiumstackair.DefaultConfig()
	if getFlag(cmd, "fast") {
		config = vybiumstackair.TestConfig()
	}

	if q := getInt(cmd, "queries"); q != 0 {
		config.WithNumQueries(q)
	}
	if b := getInt(cmd, "blowup-log"); b != 0 {
		config.WithBlowupLog(b)
	}
	if p := getInt(cmd, "pow-bits"); p >= 0 {
		config.WithProofOfWorkBits(p)
	}
	if h := getString(cmd, "hash"); h != "" {
		config.WithHashFunction(h)
	}
	if m := getInt(cmd, "max-log2-height"); m != 0 {
		config.WithMaxLog2Height(m)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	log.Debugf("config: %d queries, blow-up 2^%d, %d pow bits, %s, max 2^%d rows (~%d bits)",
		config.NumQueries, config.BlowupLog, config.ProofOfWorkBits, config.HashFunction,
		config.MaxLog2Height, config.SecurityBits())
	return config, nil
}

// readInput reads a named file, or stdin for "-"
func readInput(cmd *cobra.Command, name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(name)
}

// parseProgram accepts either the text syntax or a JSON instruction list
func parseProgram(data []byte) (vybiumstackair.Program, error) {
	text := strings.TrimSpace(string(data))
	if !strings.HasPrefix(text, "{") {
		return vybiumstackair.ParseProgram(text)
	}

	var input ProgramInput
	if err := json.Unmarshal([]byte(text), &input); err != nil {
		return nil, fmt.Errorf("failed to parse program: %w", err)
	}
	return vybiumstackair.ParseProgram(strings.Join(input.Instructions, "\n"))
}

func readProgram(cmd *cobra.Command, name string) (vybiumstackair.Program, error) {
	data, err := readInput(cmd, name)
	if err != nil {
		return nil, err
	}
	program, err := parseProgram(data)
	if err != nil {
		return nil, err
	}
	log.Debugf("read %d instructions from %s", len(program), name)
	return program, nil
}

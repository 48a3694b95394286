package main

import (
	"github.com/spf13/cobra"

	"github.com/MKhiriev/qre-core/internal/service"
)

var (
	keyfilePath string
	outputDir   string
	entropy     string
)

var lockCmd = &cobra.Command{
	Use:   "lock FILE...",
	Short: "Encrypt files or folders into .qre containers",
	Example: `  qre lock report.pdf photos/*.jpg
  qre lock --keyfile ~/.qre.key --out /backup secrets.txt`,
	Args: cobra.MinimumNArgs(1),
	RunE: runLock,
}

var unlockCmd = &cobra.Command{
	Use:   "unlock FILE...",
	Short: "Decrypt .qre containers",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runUnlock,
}

func init() {
	rootCmd.AddCommand(lockCmd, unlockCmd)

	for _, cmd := range []*cobra.Command{lockCmd, unlockCmd} {
		cmd.Flags().StringVar(&keyfilePath, "keyfile", "", "Keyfile mixed into the file keys")
		cmd.Flags().StringVarP(&outputDir, "out", "o", "", "Output directory (default: next to each input)")
	}
	lockCmd.Flags().StringVar(&entropy, "entropy", "", "Extra entropy added to system randomness")
}

func runLock(cmd *cobra.Command, args []string) error {
	keyfile, err := readKeyfile(keyfilePath)
	if err != nil {
		return err
	}

	masterKey, err := unlockVault()
	if err != nil {
		return err
	}
	defer masterKey.Destroy()

	ctx, cancel := commandContext()
	defer cancel()

	results, err := services.FileService.LockFiles(ctx, args, masterKey, service.BatchOptions{
		Keyfile:   keyfile,
		Entropy:   []byte(entropy),
		OutputDir: outputDir,
	})
	if err != nil {
		return err
	}
	return printResults(results)
}

func runUnlock(cmd *cobra.Command, args []string) error {
	keyfile, err := readKeyfile(keyfilePath)
	if err != nil {
		return err
	}

	masterKey, err := unlockVault()
	if err != nil {
		return err
	}
	defer masterKey.Destroy()

	ctx, cancel := commandContext()
	defer cancel()

	results, err := services.FileService.UnlockFiles(ctx, args, masterKey, service.BatchOptions{
		Keyfile:   keyfile,
		OutputDir: outputDir,
	})
	if err != nil {
		return err
	}
	return printResults(results)
}

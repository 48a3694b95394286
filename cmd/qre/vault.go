package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/MKhiriev/qre-core/internal/crypto"
)

var copyCode bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a new vault",
	Long: `Init creates the keychain file and prints the recovery code.
The recovery code is shown only once. Store it somewhere safe.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

var changePasswordCmd = &cobra.Command{
	Use:   "change-password",
	Short: "Replace the vault password",
	Args:  cobra.NoArgs,
	RunE:  runChangePassword,
}

var recoverCmd = &cobra.Command{
	Use:   "recover",
	Short: "Reset a forgotten password with the recovery code",
	Args:  cobra.NoArgs,
	RunE:  runRecover,
}

var regenerateCodeCmd = &cobra.Command{
	Use:   "regenerate-code",
	Short: "Replace the recovery code",
	Long:  `The previous recovery code stops working once the new one is printed.`,
	Args:  cobra.NoArgs,
	RunE:  runRegenerateCode,
}

func init() {
	rootCmd.AddCommand(initCmd, changePasswordCmd, recoverCmd, regenerateCodeCmd)

	for _, cmd := range []*cobra.Command{initCmd, regenerateCodeCmd} {
		cmd.Flags().BoolVar(&copyCode, "copy", false, "Copy the recovery code to the clipboard")
	}
}

func runInit(cmd *cobra.Command, _ []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	password, err := promptNewPassword()
	if err != nil {
		return err
	}

	code, masterKey, err := services.KeychainService.Init(ctx, cfg.Storage.KeychainPath, password)
	if err != nil {
		return err
	}
	masterKey.Destroy()

	printSuccess("Vault created at %s", cfg.Storage.KeychainPath)
	showRecoveryCode(code)
	return nil
}

func runChangePassword(cmd *cobra.Command, _ []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	masterKey, err := unlockVault()
	if err != nil {
		return err
	}
	defer masterKey.Destroy()

	password, err := promptNewPassword()
	if err != nil {
		return err
	}
	if err = services.KeychainService.ChangePassword(ctx, cfg.Storage.KeychainPath, masterKey, password); err != nil {
		return err
	}

	printSuccess("Password changed")
	return nil
}

func runRecover(cmd *cobra.Command, _ []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	fmt.Fprint(os.Stderr, "Recovery code: ")
	code, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && code == "" {
		return fmt.Errorf("read recovery code: %w", err)
	}

	password, err := promptNewPassword()
	if err != nil {
		return err
	}

	masterKey, err := services.KeychainService.Recover(ctx, cfg.Storage.KeychainPath, strings.TrimSpace(code), password)
	if err != nil {
		return err
	}
	masterKey.Destroy()

	printSuccess("Password reset. Your recovery code is unchanged.")
	return nil
}

func runRegenerateCode(cmd *cobra.Command, _ []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	masterKey, err := unlockVault()
	if err != nil {
		return err
	}
	defer masterKey.Destroy()

	code, err := services.KeychainService.RegenerateRecoveryCode(ctx, cfg.Storage.KeychainPath, masterKey)
	if err != nil {
		return err
	}

	printSuccess("Recovery code replaced")
	showRecoveryCode(code)
	return nil
}

// unlockVault prompts for the password and returns the Master Key.
func unlockVault() (*crypto.MasterKey, error) {
	ctx, cancel := commandContext()
	defer cancel()

	password, err := promptPassword("Password: ")
	if err != nil {
		return nil, fmt.Errorf("read password: %w", err)
	}
	return services.KeychainService.Unlock(ctx, cfg.Storage.KeychainPath, password)
}

func showRecoveryCode(code string) {
	fmt.Println()
	fmt.Printf("  Recovery code: %s\n", code)
	fmt.Println()
	printWarning("This code is shown once. Anyone holding it can reset your password.")

	if !copyCode {
		return
	}
	if err := clipboard.WriteAll(code); err != nil {
		printError("copy to clipboard: %v", err)
		return
	}
	printSuccess("Recovery code copied to the clipboard")
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ssargent/canvaslog/pkg/canvas"
	"github.com/ssargent/canvaslog/pkg/identity"
)

// identifyCmd represents the identify command
var identifyCmd = &cobra.Command{
	Use:   "identify <numeric|string|secret> [value]",
	Short: "Record a contributor identity",
	Long: `Append an identifier record and register it in the identity table.
Placements that follow are attributed to the printed index.

A secret is given as a session id; when omitted a new one is generated.
Unique identities are never shared and are not kept across runs.

Examples:
  canvaslog identify numeric 1234
  canvaslog identify string alice
  canvaslog identify secret --unique`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		unique, _ := cmd.Flags().GetBool("unique")

		id, err := parseIdentifier(args)
		if err != nil {
			return err
		}

		cfg, err := configFrom(cmd)
		if err != nil {
			return err
		}

		table, err := openIdentities(cfg)
		if err != nil {
			return err
		}
		defer table.Close()

		writer, err := openLog(cmd, cfg)
		if err != nil {
			return err
		}
		defer writer.Close()

		offset, err := writer.Append(id)
		if err != nil {
			return err
		}
		index, err := table.Register(id, unique)
		if err != nil {
			return err
		}

		cmd.Printf("Appended %s at offset %d\n", id.Tag(), offset)
		cmd.Printf("Identity %s\n", index)
		if secret, ok := id.(canvas.IdentifierSecret); ok {
			sessionID, _ := identity.SessionID(secret)
			cmd.Printf("Session %s\n", sessionID)
		}
		return nil
	},
}

func parseIdentifier(args []string) (canvas.Identifier, error) {
	kind := args[0]
	value := ""
	if len(args) > 1 {
		value = args[1]
	}

	switch kind {
	case "numeric":
		if value == "" {
			return nil, fmt.Errorf("numeric identity needs a value")
		}
		n, err := parseUint64("numeric identity", value)
		if err != nil {
			return nil, err
		}
		return canvas.IdentifierNumeric(n), nil
	case "string":
		if value == "" {
			return nil, fmt.Errorf("string identity needs a value")
		}
		return canvas.IdentifierString(value), nil
	case "secret":
		if value == "" {
			return identity.NewSessionSecret(), nil
		}
		secret, err := identity.ParseSessionID(value)
		if err != nil {
			return nil, err
		}
		return secret, nil
	}
	return nil, fmt.Errorf("unknown identity type %q: want numeric, string or secret", kind)
}

func init() {
	rootCmd.AddCommand(identifyCmd)
	identifyCmd.Flags().Bool("unique", false, "Register under a unique, unshared index")
}

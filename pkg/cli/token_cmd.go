package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Access token helpers",
	}

	cmd.AddCommand(newTokenDecodeCmd())
	return cmd
}

func newTokenDecodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode [token]",
		Short: "Print a token's subject, scopes, and expiry without verifying it",
		Long:  "Decodes an access or id token and prints its claims. The signature is not checked; the output is a debugging aid, not proof of validity. The token is taken from the argument, prompted without echo on a terminal, or read from stdin otherwise.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var raw string
			if len(args) == 1 {
				raw = args[0]
			} else {
				read, err := readToken(cmd)
				if err != nil {
					return err
				}
				raw = read
			}
			if raw == "" {
				return fmt.Errorf("no token provided")
			}

			claims := jwt.MapClaims{}
			if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
				return fmt.Errorf("decode token: %w", err)
			}

			if getOutputFormat(cmd) == "json" {
				return printJSON(cmd.OutOrStdout(), claims)
			}

			pairs := [][2]string{
				{"Subject", claimString(claims, "sub")},
				{"User", claimString(claims, "preferred_username")},
				{"Name", claimString(claims, "name")},
				{"Tenant", claimString(claims, "tid")},
				{"Audience", claimString(claims, "aud")},
				{"Scopes", claimString(claims, "scp")},
				{"Issued", claimTime(claims, "iat")},
				{"Expires", expiryString(claims)},
			}
			printDetail(cmd.OutOrStdout(), pairs)
			return nil
		},
	}
	return cmd
}

// readToken prompts without echo when stdin is a terminal and reads a
// single value from stdin otherwise, so tokens can be piped in.
func readToken(cmd *cobra.Command) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprint(cmd.ErrOrStderr(), "Token: ")
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("read token: %w", err)
		}
		return strings.TrimSpace(string(b)), nil
	}

	b, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("read token: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}

func claimString(claims jwt.MapClaims, key string) string {
	switch v := claims[key].(type) {
	case string:
		return v
	case []interface{}:
		parts := make([]string, 0, len(v))
		for _, e := range v {
			parts = append(parts, fmt.Sprintf("%v", e))
		}
		return strings.Join(parts, " ")
	case nil:
		return "-"
	default:
		return fmt.Sprintf("%v", v)
	}
}

func claimTime(claims jwt.MapClaims, key string) string {
	v, ok := claims[key].(float64)
	if !ok {
		return "-"
	}
	return time.Unix(int64(v), 0).UTC().Format(time.RFC3339)
}

// expiryString renders exp together with the remaining or elapsed time.
func expiryString(claims jwt.MapClaims) string {
	v, ok := claims["exp"].(float64)
	if !ok {
		return "-"
	}
	exp := time.Unix(int64(v), 0).UTC()
	remaining := time.Until(exp).Round(time.Second)
	if remaining < 0 {
		return fmt.Sprintf("%s (expired %s ago)", exp.Format(time.RFC3339), -remaining)
	}
	return fmt.Sprintf("%s (in %s)", exp.Format(time.RFC3339), remaining)
}

package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/beeux/beectl/internal/azure"
	"github.com/beeux/beectl/internal/config"
	"github.com/beeux/beectl/internal/ui"
)

var nsgCmd = &cobra.Command{
	Use:   "nsg",
	Short: "Manage the fleet network security group",
	Long: `Manage inbound rules on the shared network security group.

New allow rules land in the 1100-4000 priority band, below the base
SSH rule. Default Azure rules are read-only.

Examples:
  beectl nsg list
  beectl nsg allow 8080
  beectl nsg allow 5432 --from 10.10.1.0/24 --name allow-postgres
  beectl nsg revoke allow-8080`,
}

var nsgListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List NSG rules",
	RunE:    runNSGList,
}

var nsgAllowCmd = &cobra.Command{
	Use:   "allow <port>",
	Short: "Allow an inbound TCP port",
	Long: `Add an inbound allow rule for a TCP port. The rule name defaults to
allow-<port> and the source to any.

Examples:
  beectl nsg allow 8080
  beectl nsg allow 5432 --from 203.0.113.7`,
	Args: cobra.ExactArgs(1),
	RunE: runNSGAllow,
}

var nsgRevokeCmd = &cobra.Command{
	Use:     "revoke <rule-name>",
	Aliases: []string{"deny", "rm"},
	Short:   "Remove an inbound rule",
	Args:    cobra.ExactArgs(1),
	RunE:    runNSGRevoke,
}

var (
	nsgNameFlag   string
	nsgSourceFlag string
	nsgRuleFlag   string
)

func init() {
	rootCmd.AddCommand(nsgCmd)
	nsgCmd.AddCommand(nsgListCmd)
	nsgCmd.AddCommand(nsgAllowCmd)
	nsgCmd.AddCommand(nsgRevokeCmd)

	nsgCmd.PersistentFlags().StringVar(&nsgNameFlag, "nsg", "", "Security group name (default from manifest)")
	nsgAllowCmd.Flags().StringVar(&nsgSourceFlag, "from", "*", "Source IP or CIDR")
	nsgAllowCmd.Flags().StringVar(&nsgRuleFlag, "name", "", "Rule name (default allow-<port>)")
}

// nsgName resolves the security group: flag, then manifest, then the
// fleet default.
func nsgName() string {
	if nsgNameFlag != "" {
		return nsgNameFlag
	}
	if m, err := config.LoadManifest(manifestPath("")); err == nil && m.Network.NSGName != "" {
		return m.Network.NSGName
	}
	return config.DefaultNetwork().NSGName
}

func getNSGProvider(ctx context.Context) (*azure.NSGProvider, error) {
	client, _, err := getClient(ctx)
	if err != nil {
		return nil, err
	}
	return azure.NewNSGProvider(client, nsgName()), nil
}

func runNSGList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	nsg, err := getNSGProvider(ctx)
	if err != nil {
		return err
	}

	rules, err := nsg.ListRules(ctx)
	if err != nil {
		return err
	}

	if len(rules) == 0 {
		fmt.Println("No rules found")
		return nil
	}

	ui.PrintRuleTable(rules)
	return nil
}

func runNSGAllow(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	port, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid port %q", args[0])
	}

	nsg, err := getNSGProvider(ctx)
	if err != nil {
		return err
	}

	if err := nsg.AllowInbound(ctx, port, nsgSourceFlag, nsgRuleFlag); err != nil {
		return err
	}

	ruleName := nsgRuleFlag
	if ruleName == "" {
		ruleName = fmt.Sprintf("allow-%d", port)
	}
	ui.Successf("Rule %s: inbound %d from %s", ruleName, port, nsgSourceFlag)
	return nil
}

func runNSGRevoke(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	nsg, err := getNSGProvider(ctx)
	if err != nil {
		return err
	}

	if err := nsg.RevokeRule(ctx, args[0]); err != nil {
		return err
	}

	ui.Successf("Rule %s removed", args[0])
	return nil
}

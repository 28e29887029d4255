package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hupe1980/npcflow"
	"github.com/hupe1980/npcflow/config"
)

const version = "0.1.0"

var (
	configFlag  string
	playerFlag  string
	messageFlag string
	limitFlag   int
)

var rootCmd = &cobra.Command{
	Use:   "npcflow",
	Short: "npcflow - conversational NPC pipeline",
}

var chatCmd = &cobra.Command{
	Use:   "chat <npc>",
	Short: "Chat with an NPC in single message or REPL mode",
	Args:  cobra.ExactArgs(1),
	RunE:  runChat,
}

var ambientCmd = &cobra.Command{
	Use:   "ambient",
	Short: "Refresh and print the cast's ambient lines",
	RunE:  runAmbient,
}

var rolesCmd = &cobra.Command{
	Use:   "roles",
	Short: "List the registered NPC personas",
	RunE:  runRoles,
}

var memoriesCmd = &cobra.Command{
	Use:   "memories <npc>",
	Short: "Show an NPC's episodic memories",
	Args:  cobra.ExactArgs(1),
	RunE:  runMemories,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("npcflow", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "path to a YAML or JSON config file")
	chatCmd.Flags().StringVarP(&playerFlag, "player", "p", "player", "player id")
	chatCmd.Flags().StringVarP(&messageFlag, "message", "m", "", "single message to send")
	memoriesCmd.Flags().IntVarP(&limitFlag, "limit", "n", 20, "maximum memories to show")
	rootCmd.AddCommand(chatCmd, ambientCmd, rolesCmd, memoriesCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadTown(cmd *cobra.Command) (*npcflow.Town, error) {
	cfg := config.Default()

	if configFlag != "" {
		var err error
		if cfg, err = config.Load(configFlag); err != nil {
			return nil, err
		}
	}

	return npcflow.FromConfig(cmd.Context(), cfg)
}

func runChat(cmd *cobra.Command, args []string) error {
	town, err := loadTown(cmd)
	if err != nil {
		return err
	}
	defer town.Close()

	ctx := cmd.Context()
	npcID := args[0]

	if messageFlag != "" {
		res, err := town.Chat(ctx, npcID, playerFlag, messageFlag)
		if err != nil {
			return fmt.Errorf("chat: %w", err)
		}

		printReply(npcID, res.Reply, res.Affinity, res.AffinityChanged)

		return nil
	}

	fmt.Printf("Chatting with %s (type 'exit' to quit)\n", npcID)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("\n> ")
		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		if input == "exit" || input == "quit" {
			break
		}

		res, err := town.Chat(ctx, npcID, playerFlag, input)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			continue
		}

		printReply(npcID, res.Reply, res.Affinity, res.AffinityChanged)
	}

	return scanner.Err()
}

func printReply(npcID, reply string, affinity float64, changed bool) {
	fmt.Printf("%s: %s\n", npcID, reply)

	if changed {
		fmt.Printf("(好感度 %.0f)\n", affinity)
	}
}

func runAmbient(cmd *cobra.Command, args []string) error {
	town, err := loadTown(cmd)
	if err != nil {
		return err
	}
	defer town.Close()

	gen := town.Ambient()
	if gen == nil {
		return errors.New("ambient generation is disabled")
	}

	lines := gen.Refresh(cmd.Context())

	names := make([]string, 0, len(lines))
	for name := range lines {
		names = append(names, name)
	}

	sort.Strings(names)

	for _, name := range names {
		fmt.Printf("%s: %s\n", name, lines[name])
	}

	return nil
}

func runRoles(cmd *cobra.Command, args []string) error {
	town, err := loadTown(cmd)
	if err != nil {
		return err
	}
	defer town.Close()

	for _, role := range town.Manager().Roles() {
		fmt.Printf("%s(%s): 在%s%s\n", role.Name, role.Title, role.Location, role.Activity)
	}

	return nil
}

func runMemories(cmd *cobra.Command, args []string) error {
	town, err := loadTown(cmd)
	if err != nil {
		return err
	}
	defer town.Close()

	entries, err := town.Manager().Memories(cmd.Context(), args[0], limitFlag)
	if err != nil {
		return err
	}

	if len(entries) == 0 {
		fmt.Println("no memories")
		return nil
	}

	for _, entry := range entries {
		fmt.Println("-", entry.Content)
	}

	return nil
}

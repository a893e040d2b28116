package cli

import (
	"fmt"
	"os"

	"github.com/github/elastomer"
	"github.com/spf13/cobra"
)

func init() {
	cmdIndexCreate.Flags().StringP("body", "b", "", "Index settings and mappings as JSON, or '-' to read them from stdin")

	cmdIndex.AddCommand(cmdIndexCreate)
	cmdIndex.AddCommand(cmdIndexDelete)
	cmdIndex.AddCommand(cmdIndexRefresh)
	cmdIndex.AddCommand(cmdIndexExists)
	cmdIndex.AddCommand(cmdIndexGet)
	rootCmd.AddCommand(cmdIndex)
}

var cmdIndex = &cobra.Command{
	Use:     "index",
	Aliases: []string{"indices"},
	Short:   "Interact with the indices of the cluster.",
	Long:    `Use the subcommands to create, delete, refresh and read from indices.`,
}

var cmdIndexCreate = &cobra.Command{
	Use:   "create <index>",
	Short: "Create an index",
	Long:  `Create the given index, optionally with settings and mappings.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {

		v := getClient()

		var body interface{}
		if content := readBody(cmd, "body"); content != "" {
			body = content
		}

		_, err := v.CreateIndex(args[0], body)
		if err != nil {
			fmt.Printf("Error creating index %s: %s\n", args[0], err)
			os.Exit(1)
		}

		fmt.Printf("Created index %s\n", args[0])
	},
}

var cmdIndexDelete = &cobra.Command{
	Use:   "delete <index>",
	Short: "Delete an index",
	Long:  `Delete the given index and all of its documents.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {

		v := getClient()

		_, err := v.DeleteIndex(args[0])
		if err != nil {
			fmt.Printf("Error deleting index %s: %s\n", args[0], err)
			os.Exit(1)
		}

		fmt.Printf("Deleted index %s\n", args[0])
	},
}

var cmdIndexRefresh = &cobra.Command{
	Use:   "refresh <index>",
	Short: "Refresh an index",
	Long:  `Make the documents recently written to the given index visible.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {

		v := getClient()

		_, err := v.Refresh(args[0])
		if err != nil {
			fmt.Printf("Error refreshing index %s: %s\n", args[0], err)
			os.Exit(1)
		}
	},
}

var cmdIndexExists = &cobra.Command{
	Use:   "exists <index>",
	Short: "Check if an index exists",
	Long:  `Exits with a non zero status when the given index does not exist.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {

		v := getClient()

		exists, err := v.IndexExists(args[0])
		if err != nil {
			fmt.Printf("Error checking index %s: %s\n", args[0], err)
			os.Exit(1)
		}

		if !exists {
			fmt.Printf("Index %s does not exist\n", args[0])
			os.Exit(1)
		}
		fmt.Printf("Index %s exists\n", args[0])
	},
}

var cmdIndexGet = &cobra.Command{
	Use:   "get <index> <type> <id>",
	Short: "Fetch a document",
	Long:  `Print the document with the given id as JSON.`,
	Args:  cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {

		v := getClient()

		document, err := v.GetDocument(args[0], args[1], args[2])
		if err != nil {
			fmt.Printf("Error getting document: %s\n", err)
			os.Exit(1)
		}

		if !elastomer.DocumentExists(document) {
			fmt.Printf("Document %s/%s/%s does not exist\n", args[0], args[1], args[2])
			os.Exit(1)
		}

		printJSON(document)
	},
}

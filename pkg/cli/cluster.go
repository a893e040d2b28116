package cli

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"

	"github.com/github/elastomer"
	"github.com/spf13/cobra"
)

func init() {
	cmdReroute.Flags().StringP("body", "b", "", "Reroute commands as JSON, or '-' to read them from stdin (required)")
	err := cmdReroute.MarkFlagRequired("body")
	if err != nil {
		fmt.Printf("Error binding body flag: %s \n", err)
		os.Exit(1)
	}
	cmdReroute.Flags().Bool("dry-run", false, "Simulate the commands without applying them")

	cmdShutdown.Flags().String("delay", "", "Delay before the nodes shut down, e.g. '10s'")

	rootCmd.AddCommand(cmdState)
	rootCmd.AddCommand(cmdReroute)
	rootCmd.AddCommand(cmdShutdown)
}

func printJSON(value interface{}) {
	out, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		fmt.Printf("Error formatting response: %s\n", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}

func readBody(cmd *cobra.Command, flag string) string {
	body, err := cmd.Flags().GetString(flag)
	if err != nil {
		fmt.Printf("Could not retrieve required argument: %s. Error: %s\n", flag, err)
		os.Exit(1)
	}

	if body != "-" {
		return body
	}

	content, err := ioutil.ReadAll(cmd.InOrStdin())
	if err != nil {
		fmt.Printf("Error reading %s from stdin: %s\n", flag, err)
		os.Exit(1)
	}
	return string(content)
}

var cmdState = &cobra.Command{
	Use:   "state",
	Short: "Display the cluster state.",
	Long:  `Show comprehensive state information of the whole cluster as JSON.`,
	Run: func(cmd *cobra.Command, args []string) {

		v := getClient()

		state, err := v.State(nil)
		if err != nil {
			fmt.Printf("Error getting cluster state: %s\n", err)
			os.Exit(1)
		}

		printJSON(state)
	},
}

var cmdReroute = &cobra.Command{
	Use:   "reroute",
	Short: "Execute cluster reroute commands.",
	Long:  `Explicitly move, cancel or allocate shards with the cluster reroute API.`,
	Run: func(cmd *cobra.Command, args []string) {

		v := getClient()

		body := readBody(cmd, "body")

		dryRun, err := cmd.Flags().GetBool("dry-run")
		if err != nil {
			fmt.Printf("Could not retrieve argument: dry-run. Error: %s\n", err)
			os.Exit(1)
		}

		response, err := v.Reroute(body, elastomer.Params{"dry_run": dryRun})
		if err != nil {
			fmt.Printf("Error rerouting: %s\n", err)
			os.Exit(1)
		}

		fmt.Printf("Acknowledged: %v\n", response["acknowledged"])
	},
}

var cmdShutdown = &cobra.Command{
	Use:   "shutdown",
	Short: "Shutdown the entire cluster.",
	Long:  `Ask every node of the cluster to shut down.`,
	Run: func(cmd *cobra.Command, args []string) {

		v := getClient()

		delay, err := cmd.Flags().GetString("delay")
		if err != nil {
			fmt.Printf("Could not retrieve argument: delay. Error: %s\n", err)
			os.Exit(1)
		}

		params := elastomer.Params{}
		if delay != "" {
			params["delay"] = delay
		}

		response, err := v.Shutdown(params)
		if err != nil {
			fmt.Printf("Error shutting down the cluster: %s\n", err)
			os.Exit(1)
		}

		printJSON(response)
	},
}

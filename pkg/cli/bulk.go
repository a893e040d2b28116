package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/github/elastomer"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
)

func init() {
	cmdBulk.Flags().StringP("index", "i", "", "Index the documents are written to (required)")
	err := cmdBulk.MarkFlagRequired("index")
	if err != nil {
		fmt.Printf("Error binding index flag: %s \n", err)
		os.Exit(1)
	}

	cmdBulk.Flags().String("type", "", "Document type, for clusters that still use mapping types")
	cmdBulk.Flags().String("id-field", "", "Document field holding the id, documents without it get a generated id")
	cmdBulk.Flags().Int("request-size", 0, "Send a request before the payload grows past this many bytes, 0 for no limit")
	cmdBulk.Flags().Int("action-count", 500, "Send a request every time this many documents are buffered, 0 for no limit")

	rootCmd.AddCommand(cmdBulk)
}

type bulkReport struct {
	rows [][]string
}

func (r *bulkReport) add(response *elastomer.BulkResponse) {
	if response == nil {
		return
	}

	reasons := []string{}
	for _, item := range response.Failed() {
		reasons = append(reasons, fmt.Sprintf("%s %s: %s", item.Action, item.Result.ID, item.ErrorReason()))
	}

	r.rows = append(r.rows, []string{
		strconv.Itoa(len(r.rows) + 1),
		strconv.Itoa(response.Took),
		strconv.Itoa(len(response.Items)),
		strconv.Itoa(len(reasons)),
		strings.Join(reasons, "\n"),
	})
}

// indexDocuments sends every line of input as a document through a bulk
// session and reports on each request that was sent.
func indexDocuments(v *elastomer.Client, input io.Reader, options elastomer.BulkOptions, idField string) (*bulkReport, error) {
	report := &bulkReport{}
	scanner := bufio.NewScanner(input)
	scanner.Buffer(make([]byte, 64*1024), 64*1024*1024)

	final, err := v.DoBulk(options, func(b *elastomer.BulkSession) error {
		line := 0
		for scanner.Scan() {
			line++
			document := strings.TrimSpace(scanner.Text())
			if document == "" {
				continue
			}

			if !gjson.Valid(document) {
				return fmt.Errorf("line %d is not valid JSON", line)
			}

			metadata := elastomer.Metadata{}
			if idField != "" {
				metadata.ID = gjson.Get(document, idField).String()
			}

			response, err := b.Index(document, metadata)
			if err != nil {
				return err
			}
			report.add(response)
		}
		return scanner.Err()
	})
	if err != nil {
		return report, err
	}

	report.add(final)
	return report, nil
}

var cmdBulk = &cobra.Command{
	Use:   "bulk [file]",
	Short: "Index newline delimited JSON documents.",
	Long:  `Read one JSON document per line from the given file (or stdin) and index them with the bulk API, sending a request whenever the configured size or count is reached.`,
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {

		v := getClient()

		index, _ := cmd.Flags().GetString("index")
		docType, _ := cmd.Flags().GetString("type")
		idField, _ := cmd.Flags().GetString("id-field")
		requestSize, _ := cmd.Flags().GetInt("request-size")
		actionCount, _ := cmd.Flags().GetInt("action-count")

		input := cmd.InOrStdin()
		if len(args) > 0 {
			file, err := os.Open(args[0])
			if err != nil {
				fmt.Printf("Error opening %s: %s\n", args[0], err)
				os.Exit(1)
			}
			defer file.Close()
			input = file
		}

		options := elastomer.BulkOptions{
			Index:       index,
			Type:        docType,
			RequestSize: requestSize,
			ActionCount: actionCount,
		}

		report, err := indexDocuments(v, input, options, idField)

		if len(report.rows) > 0 {
			header := []string{"Request", "Took (ms)", "Items", "Failed", "Errors"}
			fmt.Println(renderTable(report.rows, header))
		}

		if err != nil {
			fmt.Printf("Error indexing documents: %s\n", err)
			os.Exit(1)
		}
	},
}

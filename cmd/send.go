package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/internal/outreach"
)

var (
	sendInputPath string
	sendTo        string
	sendDryRun    bool
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Generate and send a personalized outreach email",
	Long:  "Reads {\"product_vision\": ..., \"linkedin_profile\": ...} JSON from stdin (or --input), extracts the recipient address from the profile, generates the email with Claude, and delivers it via SendGrid.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("send"); err != nil {
			return err
		}

		var in io.Reader = cmd.InOrStdin()
		if sendInputPath != "" {
			f, err := os.Open(sendInputPath)
			if err != nil {
				return eris.Wrap(err, "open input file")
			}
			defer f.Close() //nolint:errcheck
			in = f
		}

		req, err := readSendInput(in)
		if err != nil {
			return err
		}
		if sendTo != "" {
			req.Recipient = sendTo
		}
		if req.Recipient == "" {
			return eris.New("no email address found in profile; pass --to")
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		sender := initSender(st)
		if sender == nil {
			return eris.New("anthropic and sendgrid credentials are required")
		}

		var result *model.EmailResult
		if sendDryRun {
			result, err = sender.Preview(ctx, req)
		} else {
			result, err = sender.Send(ctx, req)
		}
		if err != nil {
			return eris.Wrap(err, "send email")
		}

		fmt.Fprintf(os.Stderr, "To:      %s\n", result.Recipient)
		fmt.Fprintf(os.Stderr, "Subject: %s\n", result.Subject)
		if sendDryRun {
			fmt.Fprintln(os.Stderr, "Dry run, nothing sent. Body:")
			fmt.Fprintln(os.Stdout, result.BodyHTML)
		} else {
			fmt.Fprintln(os.Stderr, "Email sent.")
		}

		return nil
	},
}

// readSendInput decodes the send payload. The linkedin_profile field may be
// a JSON object or a plain string dump of the profile.
func readSendInput(r io.Reader) (model.EmailRequest, error) {
	var payload struct {
		ProductVision   string          `json:"product_vision"`
		LinkedinProfile json.RawMessage `json:"linkedin_profile"`
	}
	if err := json.NewDecoder(r).Decode(&payload); err != nil {
		return model.EmailRequest{}, eris.Wrap(err, "parse input")
	}
	if payload.ProductVision == "" {
		return model.EmailRequest{}, eris.New("product_vision is required")
	}
	if len(payload.LinkedinProfile) == 0 {
		return model.EmailRequest{}, eris.New("linkedin_profile is required")
	}

	rawProfile := string(payload.LinkedinProfile)
	var asString string
	if err := json.Unmarshal(payload.LinkedinProfile, &asString); err == nil {
		rawProfile = asString
	}

	return model.EmailRequest{
		Recipient:   outreach.ExtractEmail(rawProfile),
		ProfileText: outreach.ReadableProfile(rawProfile),
		ProductGoal: payload.ProductVision,
	}, nil
}

func init() {
	sendCmd.Flags().StringVar(&sendInputPath, "input", "", "read the payload from a file instead of stdin")
	sendCmd.Flags().StringVar(&sendTo, "to", "", "override the recipient address")
	sendCmd.Flags().BoolVar(&sendDryRun, "dry-run", false, "generate and print the email without sending")
	rootCmd.AddCommand(sendCmd)
}

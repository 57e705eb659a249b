package notification

import (
	"fmt"
	"log"

	"github.com/twilio/twilio-go"
	api "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/campaign-os/assistant/config"
)

var client *twilio.RestClient

// Init prepares the SMS client. Alerts are optional: missing Twilio config
// just disables them.
func Init() {
	if !Enabled() {
		log.Printf("[notification] twilio not configured, run alerts disabled")
		return
	}
	client = twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: config.TwilioAccountSID,
		Password: config.TwilioAuthToken,
	})
}

// Enabled reports whether run alerts can be sent.
func Enabled() bool {
	return config.TwilioAccountSID != "" && config.TwilioAuthToken != "" &&
		config.TwilioFromNumber != "" && config.TwilioAlertNumber != ""
}

// SendSMS sends one message to the configured alert number.
func SendSMS(body string) error {
	if client == nil {
		return fmt.Errorf("twilio not configured")
	}
	params := &api.CreateMessageParams{}
	params.SetTo(config.TwilioAlertNumber)
	params.SetFrom(config.TwilioFromNumber)
	params.SetBody(body)

	if _, err := client.Api.CreateMessage(params); err != nil {
		return fmt.Errorf("sending sms: %w", err)
	}
	return nil
}

// NotifyRunComplete alerts on a finished pipeline run. Failures are logged
// only; alerting must never fail the pipeline.
func NotifyRunComplete(ads, campaigns int, partial bool) {
	if client == nil {
		return
	}
	status := "complete"
	if partial {
		status = "complete (partial fetch)"
	}
	msg := fmt.Sprintf("Ads pipeline %s: %d ads across %d campaigns", status, ads, campaigns)
	if err := SendSMS(msg); err != nil {
		log.Printf("[notification] %v", err)
	}
}

// NotifyRunFailed alerts on a pipeline failure.
func NotifyRunFailed(runErr error) {
	if client == nil {
		return
	}
	if err := SendSMS(fmt.Sprintf("Ads pipeline FAILED: %v", runErr)); err != nil {
		log.Printf("[notification] %v", err)
	}
}

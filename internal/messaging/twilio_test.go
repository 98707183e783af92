package messaging

import (
	"context"
	"errors"
	"testing"

	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

type fakeMessageCreator struct {
	params []*twilioApi.CreateMessageParams
	err    error
}

func (f *fakeMessageCreator) CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error) {
	f.params = append(f.params, params)
	if f.err != nil {
		return nil, f.err
	}
	return &twilioApi.ApiV2010Message{}, nil
}

func TestValidateAndCanonicalizeRecipient(t *testing.T) {
	s := &TwilioService{from: "+15550000000"}

	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"+1 (555) 123-4567", "+15551234567", false},
		{"15551234567", "+15551234567", false},
		{"+15551234567", "+15551234567", false},
		{"", "", true},
		{"not a number", "", true},
		{"12345", "", true}, // too short
	}
	for _, tc := range cases {
		got, err := s.ValidateAndCanonicalizeRecipient(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ValidateAndCanonicalizeRecipient(%q): expected error, got %q", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ValidateAndCanonicalizeRecipient(%q): unexpected error: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ValidateAndCanonicalizeRecipient(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSendMessage(t *testing.T) {
	fake := &fakeMessageCreator{}
	s := &TwilioService{api: fake, from: "+15550000000"}

	err := s.SendMessage(context.Background(), "+1 (555) 123-4567", "Your plan is ready!")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fake.params) != 1 {
		t.Fatalf("expected 1 message, got %d", len(fake.params))
	}
	p := fake.params[0]
	if p.To == nil || *p.To != "+15551234567" {
		t.Errorf("message To = %v, want +15551234567", p.To)
	}
	if p.From == nil || *p.From != "+15550000000" {
		t.Errorf("message From = %v", p.From)
	}
	if p.Body == nil || *p.Body != "Your plan is ready!" {
		t.Errorf("message Body = %v", p.Body)
	}
}

func TestSendMessageAPIFailure(t *testing.T) {
	fake := &fakeMessageCreator{err: errors.New("twilio unavailable")}
	s := &TwilioService{api: fake, from: "+15550000000"}

	if err := s.SendMessage(context.Background(), "+15551234567", "hello"); err == nil {
		t.Fatal("expected error from failed API call")
	}
}

func TestSendMessageInvalidRecipient(t *testing.T) {
	fake := &fakeMessageCreator{}
	s := &TwilioService{api: fake, from: "+15550000000"}

	if err := s.SendMessage(context.Background(), "", "hello"); err == nil {
		t.Fatal("expected validation error")
	}
	if len(fake.params) != 0 {
		t.Errorf("no API call expected for invalid recipient, got %d", len(fake.params))
	}
}

func TestNewTwilioServiceRequiresCredentials(t *testing.T) {
	t.Setenv("TWILIO_ACCOUNT_SID", "")
	t.Setenv("TWILIO_AUTH_TOKEN", "")
	t.Setenv("TWILIO_FROM_NUMBER", "")
	if _, err := NewTwilioService(); err == nil {
		t.Fatal("expected error when credentials are missing")
	}
	if _, err := NewTwilioService(WithAccountSID("sid"), WithAuthToken("token")); err == nil {
		t.Fatal("expected error when from number is missing")
	}
}

package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestErrorString(t *testing.T) {
	err := PluginNotFound("kerberos")
	want := `PLUGIN_NOT_FOUND: No authentication mechanism matches type "kerberos".`
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestErrorStringWithCause(t *testing.T) {
	cause := stderrors.New("scan failed")
	err := RegistryUnavailable(cause)
	got := err.Error()
	if got != "REGISTRY_UNAVAILABLE: Unable to create or scan the mechanism registry. (cause: scan failed)" {
		t.Errorf("unexpected Error(): %q", got)
	}
}

func TestUnwrap(t *testing.T) {
	cause := stderrors.New("underlying")
	err := RegistryBusy(cause)
	if !stderrors.Is(err, cause) {
		t.Error("expected errors.Is to find the cause")
	}
}

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{"nil", nil, ""},
		{"plain error", stderrors.New("x"), ""},
		{"direct", IncompletePlugin("none", 8, 9), ErrCodeIncompletePlugin},
		{"wrapped", fmt.Errorf("resolve: %w", Unverified("")), ErrCodeUnverified},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CodeOf(tt.err); got != tt.want {
				t.Errorf("CodeOf() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsCode(t *testing.T) {
	err := InvalidArgument("auth_type", "auth_type must not be empty")
	if !IsCode(err, ErrCodeInvalidArgument) {
		t.Error("expected IsCode to match INVALID_ARGUMENT")
	}
	if IsCode(err, ErrCodeUnverified) {
		t.Error("did not expect IsCode to match UNVERIFIED")
	}
}

func TestRetryable(t *testing.T) {
	if !IsRetryable(RegistryUnavailable(nil)) {
		t.Error("REGISTRY_UNAVAILABLE should be retryable")
	}
	if IsRetryable(PluginNotFound("none")) {
		t.Error("PLUGIN_NOT_FOUND should not be retryable")
	}
	if IsRetryable(stderrors.New("plain")) {
		t.Error("plain error should not be retryable")
	}
}

func TestWithDetail(t *testing.T) {
	err := New(ErrCodeUnsupported, "no describe capability").WithDetail("capability", "auth_cred_print")
	if err.Details["capability"] != "auth_cred_print" {
		t.Errorf("detail not set: %v", err.Details)
	}
}

func TestIncompletePluginDetails(t *testing.T) {
	err := IncompletePlugin("sharedsecret", 8, 9)
	if err.Details["resolved"] != 8 || err.Details["want"] != 9 {
		t.Errorf("unexpected details: %v", err.Details)
	}
}

package api

import "testing"

func TestDecodeResponseUnwrapsEnvelope(t *testing.T) {
	var out struct {
		ID string `json:"id"`
	}
	body := []byte(`{"success":true,"statusCode":200,"message":"ok","data":{"id":"1"}}`)
	if err := decodeResponse(body, &out); err != nil {
		t.Fatalf("decodeResponse() error = %v", err)
	}
	if out.ID != "1" {
		t.Fatalf("id = %q, want 1", out.ID)
	}
}

func TestDecodeResponseLeavesPlainBodiesAlone(t *testing.T) {
	var out struct {
		Message string `json:"message"`
	}
	// Tem "message" mas não o par success+data: passa intacto
	body := []byte(`{"message":"hello"}`)
	if err := decodeResponse(body, &out); err != nil {
		t.Fatalf("decodeResponse() error = %v", err)
	}
	if out.Message != "hello" {
		t.Fatalf("message = %q, want hello", out.Message)
	}
}

func TestDecodeResponseEnvelopeWithoutDataPassesThrough(t *testing.T) {
	var out struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	body := []byte(`{"success":true,"statusCode":204,"message":"deleted"}`)
	if err := decodeResponse(body, &out); err != nil {
		t.Fatalf("decodeResponse() error = %v", err)
	}
	if !out.Success || out.Message != "deleted" {
		t.Fatalf("out = %+v", out)
	}
}

func TestSummarizeErrorBody(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"message field", `{"message":"Invalid credentials"}`, "Invalid credentials"},
		{"error field fallback", `{"error":"not found"}`, "not found"},
		{"message wins over error", `{"message":"primary","error":"secondary"}`, "primary"},
		{"not json", `<html>502</html>`, "request failed"},
		{"empty fields", `{"message":"","error":"  "}`, "request failed"},
		{"bearer leak suppressed", `{"message":"Bearer eyJabc.def.ghi rejected"}`, "request failed"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := summarizeErrorBody([]byte(tc.body)); got != tc.want {
				t.Fatalf("summarizeErrorBody(%s) = %q, want %q", tc.body, got, tc.want)
			}
		})
	}
}

func TestErrorMessageHelpers(t *testing.T) {
	err := &Error{Status: 401, Message: "Invalid credentials"}
	if !IsUnauthorized(err) {
		t.Fatalf("IsUnauthorized() = false for 401")
	}
	if IsUnauthorized(&Error{Status: 500}) {
		t.Fatalf("IsUnauthorized() = true for 500")
	}
	if IsUnauthorized(nil) {
		t.Fatalf("IsUnauthorized(nil) = true")
	}

	if got := ErrorMessage(err, "fallback"); got != "Invalid credentials" {
		t.Fatalf("ErrorMessage() = %q", got)
	}
	if got := ErrorMessage(nil, "fallback"); got != "fallback" {
		t.Fatalf("ErrorMessage(nil) = %q, want fallback", got)
	}
	if got := ErrorMessage(&Error{Status: 500}, "fallback"); got != "fallback" {
		t.Fatalf("ErrorMessage(empty message) = %q, want fallback", got)
	}
}

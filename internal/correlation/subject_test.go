package correlation

import "testing"

func TestExtractTicketID(t *testing.T) {
	tests := []struct {
		name    string
		subject string
		want    string
		wantOK  bool
	}{
		{name: "plain id", subject: "TKT-2025-0001", want: "TKT-2025-0001", wantOK: true},
		{name: "reply prefix", subject: "Re: TKT-2025-0001 - need update", want: "TKT-2025-0001", wantOK: true},
		{name: "uppercase reply prefix", subject: "RE: TKT-2025-0001", want: "TKT-2025-0001", wantOK: true},
		{name: "lowercase id", subject: "re: tkt-2025-0001 still broken", want: "TKT-2025-0001", wantOK: true},
		{name: "embedded mid-sentence", subject: "update on ticket TKT-2024-0042 please", want: "TKT-2024-0042", wantOK: true},
		{name: "first of multiple wins", subject: "TKT-2025-0001 duplicate of TKT-2025-0002", want: "TKT-2025-0001", wantOK: true},
		{name: "long sequence", subject: "TKT-2025-123456", want: "TKT-2025-123456", wantOK: true},
		{name: "no id", subject: "printer on fire", wantOK: false},
		{name: "empty subject", subject: "", wantOK: false},
		{name: "two digit period", subject: "TKT-25-0001", wantOK: false},
		{name: "missing sequence", subject: "TKT-2025-", wantOK: false},
		{name: "prefix only", subject: "TKT- something", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractTicketID(tt.subject)
			if ok != tt.wantOK {
				t.Fatalf("ExtractTicketID(%q) ok = %v, want %v", tt.subject, ok, tt.wantOK)
			}
			if got != tt.want {
				t.Fatalf("ExtractTicketID(%q) = %q, want %q", tt.subject, got, tt.want)
			}
		})
	}
}

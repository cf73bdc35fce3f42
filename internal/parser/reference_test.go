package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractReference(t *testing.T) {
	e := New()
	tests := []struct {
		input  string
		want   string
		wantOK bool
	}{
		{"Rs.450.00 debited to Amazon on 01-01-2025 UPI Ref 123456789", "123456789", true},
		{"Ref No: AB12CD34 for Rs 20", "AB12CD34", true},
		{"Txn ID-998877 Rs 10 paid", "998877", true},
		{"Reference 4455 INR 9", "4455", true},
		{"Ref no. 7788 for Rs 50", "7788", true},
		{"UPI:ABC123 Rs 1 sent", "ABC123", true},
		{"Ref: UPIX12", "UPIX12", true},
		{"Rs 500 debited Ref123456789", "123456789", true},
		{"Rs 500 debited RefNo123456", "123456", true},
		{"Rs 500 debited TxnID998877", "998877", true},
		{"UPI Ref4455 Rs 9 sent", "4455", true},
		{"UPI:123456", "123456", true},
		{"Refund of Rs 100 processed", "", false},
		{"UPIX12 Rs 3 paid", "", false},
		{"Rs 200 debited", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := e.ExtractReference(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

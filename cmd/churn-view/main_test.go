package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/Klingon-tech/churn/pkg/xmr"
)

func TestPrintAccounts(t *testing.T) {
	accounts := []xmr.Account{
		{Index: 0, Balance: 3 * xmr.XMR, UnlockedBalance: 2 * xmr.XMR, Label: "Primary account", BaseAddress: "44AFFq5kSiGBoZ"},
		{Index: 1, Balance: xmr.XMR / 2, UnlockedBalance: xmr.XMR / 2, BaseAddress: "8BnERTpvL5MbCL"},
	}
	var out bytes.Buffer
	printAccounts(&out, accounts)

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want 4:\n%s", len(lines), out.String())
	}
	if !strings.Contains(lines[1], "2.000000000000") || !strings.Contains(lines[1], "1.000000000000") {
		t.Errorf("account 0 line = %q", lines[1])
	}
	if !strings.HasSuffix(lines[0], "Address") {
		t.Errorf("header = %q, want Address column", lines[0])
	}
	if !strings.HasSuffix(lines[1], "44AFFq5kSiGBoZ") {
		t.Errorf("account 0 line = %q, want base address", lines[1])
	}
	if !strings.HasSuffix(lines[2], "8BnERTpvL5MbCL") {
		t.Errorf("account 1 line = %q, want base address", lines[2])
	}
	if !strings.Contains(lines[2], "0.500000000000") {
		t.Errorf("account 1 line = %q", lines[2])
	}
	if !strings.Contains(lines[3], "3.500000000000") || !strings.Contains(lines[3], "2.500000000000") {
		t.Errorf("total line = %q", lines[3])
	}
}

package cmd

import "testing"

func TestNSGAllowFromFlag(t *testing.T) {
	f := nsgAllowCmd.Flags().Lookup("from")
	if f == nil {
		t.Fatal("nsg allow has no --from flag")
	}
	if f.DefValue != "*" {
		t.Errorf("--from default = %q, want *", f.DefValue)
	}
	if nsgAllowCmd.Flags().Lookup("source") != nil {
		t.Error("nsg allow still registers --source")
	}
}

package mysql

import (
	"context"
	"os"
	"testing"

	"github.com/PolarWolf314/reclaim/internal/store"
	"github.com/PolarWolf314/reclaim/internal/store/test"

	_ "github.com/go-sql-driver/mysql"
)

func TestMySQLStorage(t *testing.T) {
	testDSN := os.Getenv("RECLAIM_MYSQL_STORAGE_TEST_DSN")
	if testDSN == "" {
		t.Skip("RECLAIM_MYSQL_STORAGE_TEST_DSN not set")
	}

	s, err := New(WithDSN(testDSN))
	if err != nil {
		t.Fatal(err)
	}

	// the suite expects to start without a default
	if err = s.ClearDefault(context.Background()); err != nil {
		t.Fatal(err)
	}

	test.TestSecretStorage(t, func() store.Store { return s })
}

func TestMySQLSharedStorage(t *testing.T) {
	testDSN := os.Getenv("RECLAIM_MYSQL_STORAGE_TEST_DSN")
	if testDSN == "" {
		t.Skip("RECLAIM_MYSQL_STORAGE_TEST_DSN not set")
	}

	a, err := New(WithDSN(testDSN))
	if err != nil {
		t.Fatal(err)
	}
	b, err := New(WithDSN(testDSN))
	if err != nil {
		t.Fatal(err)
	}
	if err = a.ClearDefault(context.Background()); err != nil {
		t.Fatal(err)
	}

	test.TestSharedStorage(t, a, b)
}

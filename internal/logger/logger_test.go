package logger

import (
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNew(t *testing.T) {
	log := New("prod", "debug")
	if _, ok := log.Formatter.(*logrus.JSONFormatter); !ok {
		t.Fatalf("prod logger must be JSON, got %T", log.Formatter)
	}
	if log.GetLevel() != logrus.DebugLevel {
		t.Fatalf("level = %v", log.GetLevel())
	}

	log = New("dev", "nonsense")
	if _, ok := log.Formatter.(*logrus.TextFormatter); !ok {
		t.Fatalf("dev logger must be text, got %T", log.Formatter)
	}
	if log.GetLevel() != logrus.InfoLevel {
		t.Fatalf("unknown level must fall back to info, got %v", log.GetLevel())
	}
}

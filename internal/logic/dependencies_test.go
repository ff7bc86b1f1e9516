package logic

import (
	"reflect"
	"testing"
)

func TestExtractPythonDependencies(t *testing.T) {
	code := `import requests
import os.path
from collections import defaultdict
import requests

def main():
    pass
`
	deps := extractDependencies("python", code)
	want := []string{"requests", "os", "collections"}
	if !reflect.DeepEqual(deps, want) {
		t.Fatalf("expected %v, got %v", want, deps)
	}
}

func TestExtractJavascriptDependencies(t *testing.T) {
	code := `const axios = require('axios');
const { join } = require("path");
import lodash from 'lodash';
import fs from 'fs/promises';
import scoped from '@scope/pkg';
const local = require('./helper');
`
	deps := extractDependencies("javascript", code)
	want := []string{"axios", "path", "lodash", "fs", "@scope/pkg"}
	if !reflect.DeepEqual(deps, want) {
		t.Fatalf("expected %v, got %v", want, deps)
	}
}

func TestExtractDependenciesUnknownLanguage(t *testing.T) {
	if deps := extractDependencies("ruby", "require 'json'"); deps != nil {
		t.Fatalf("expected nil for unknown language, got %v", deps)
	}
}

func TestExtractDependenciesNoImports(t *testing.T) {
	deps := extractDependencies("python", "x = 1\nprint(x)\n")
	if deps != nil {
		t.Fatalf("expected no dependencies, got %v", deps)
	}
}

func TestJoinSplitDependencies(t *testing.T) {
	joined := joinDependencies([]string{"requests", "numpy"})
	if joined != "requests,numpy" {
		t.Fatalf("unexpected joined form: %q", joined)
	}
	parts := splitDependencies(joined)
	if !reflect.DeepEqual(parts, []string{"requests", "numpy"}) {
		t.Fatalf("round trip mismatch: %v", parts)
	}
	if splitDependencies("") != nil {
		t.Fatalf("empty raw should split to nil")
	}
}

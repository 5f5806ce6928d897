/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package batchfile reads candidate batches from YAML or JSON files.
package batchfile

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/friendsincode/matchday/internal/models"
)

// ErrEmptyFile is returned for a file with no document in it.
var ErrEmptyFile = errors.New("batch file is empty")

// Loader reads batch files from a filesystem. JSON files are read by the
// YAML decoder, which accepts them unchanged.
type Loader struct {
	fs afero.Fs
}

// NewLoader creates a loader over fs. A nil fs reads the host filesystem.
func NewLoader(fs afero.Fs) *Loader {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Loader{fs: fs}
}

// Activities reads an activity batch. The file holds either a list of
// activities or a mapping with an "activities" key.
func (l *Loader) Activities(path string) ([]models.Activity, error) {
	var doc struct {
		Activities []models.Activity `yaml:"activities"`
	}
	var list []models.Activity
	if err := l.decode(path, &list, &doc); err != nil {
		return nil, err
	}
	if list != nil {
		return list, nil
	}
	return doc.Activities, nil
}

// Matches reads a match batch. The file holds either a list of matches or
// a mapping with a "matches" key.
func (l *Loader) Matches(path string) ([]models.Match, error) {
	var doc struct {
		Matches []models.Match `yaml:"matches"`
	}
	var list []models.Match
	if err := l.decode(path, &list, &doc); err != nil {
		return nil, err
	}
	if list != nil {
		return list, nil
	}
	return doc.Matches, nil
}

// decode fills list when the document is a sequence and doc when it is a mapping.
func (l *Loader) decode(path string, list, doc any) error {
	f, err := l.fs.Open(path)
	if err != nil {
		return fmt.Errorf("open batch file: %w", err)
	}
	defer f.Close()

	var root yaml.Node
	if err := yaml.NewDecoder(f).Decode(&root); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%s: %w", path, ErrEmptyFile)
		}
		return fmt.Errorf("parse %s: %w", path, err)
	}

	node := &root
	if node.Kind == yaml.DocumentNode && len(node.Content) > 0 {
		node = node.Content[0]
	}
	switch node.Kind {
	case yaml.SequenceNode:
		err = node.Decode(list)
	case yaml.MappingNode:
		err = node.Decode(doc)
	default:
		return fmt.Errorf("parse %s: expected a list or a mapping at the top level", path)
	}
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

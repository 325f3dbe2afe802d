package main

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"compare-service/backend/internal/revision"
)

type Fixtures struct {
	Pages []PageFixture `yaml:"pages"`
}

type PageFixture struct {
	Title     string            `yaml:"title"`
	Model     string            `yaml:"model"`
	Revisions []RevisionFixture `yaml:"revisions"`
}

type RevisionFixture struct {
	Text      string    `yaml:"text"`
	Comment   string    `yaml:"comment"`
	Timestamp time.Time `yaml:"timestamp"`
	// 隐藏正文 / 摘要，对应 revision.Deleted 位
	HideText    bool `yaml:"hide_text"`
	HideComment bool `yaml:"hide_comment"`
}

func (r RevisionFixture) deletedBits() uint8 {
	var bits uint8
	if r.HideText {
		bits |= revision.DeletedText
	}
	if r.HideComment {
		bits |= revision.DeletedComment
	}
	return bits
}

func parseFixtures(b []byte) (*Fixtures, error) {
	var f Fixtures
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse fixtures: %w", err)
	}
	for i, p := range f.Pages {
		if p.Title == "" {
			return nil, fmt.Errorf("page #%d: missing title", i)
		}
		if len(p.Revisions) == 0 {
			return nil, fmt.Errorf("page %q: no revisions", p.Title)
		}
		if p.Model == "" {
			f.Pages[i].Model = revision.ModelWikitext
		}
	}
	return &f, nil
}

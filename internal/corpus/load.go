package corpus

import (
	"encoding/json"
	"fmt"
	"os"
)

// PapersFile is the on-disk layout of allPapers.json.
type PapersFile struct {
	Papers map[string]Paper `json:"papers"`
}

// CitationsFile is the on-disk layout of allCitations.json.
type CitationsFile struct {
	P map[string]CitationList `json:"p"`
}

// CitationList is the outbound reference list of one paper.
type CitationList struct {
	Citations []RawCitation `json:"citations"`
}

// RawCitation is a reference as returned by the references endpoint.
type RawCitation struct {
	CitedPaper    PaperRef `json:"citedPaper"`
	Intents       []string `json:"intents"`
	IsInfluential bool     `json:"isInfluential"`
}

// PaperRef points at a paper that may not have an id in Semantic Scholar.
type PaperRef struct {
	PaperID *string `json:"paperId"`
}

// Citation converts a raw reference into a Citation from source.
// A reference without a paper id yields an empty Target.
func (r RawCitation) Citation(source string) Citation {
	c := Citation{
		Source:      source,
		Intents:     r.Intents,
		Influential: r.IsInfluential,
	}
	if r.CitedPaper.PaperID != nil {
		c.Target = *r.CitedPaper.PaperID
	}
	return c
}

// Load reads the papers and citations files and builds a Store.
func Load(papersPath, citationsPath string, opts Options) (*Store, LoadReport, error) {
	var pf PapersFile
	if err := readJSON(papersPath, &pf); err != nil {
		return nil, LoadReport{}, fmt.Errorf("reading papers: %w", err)
	}

	var cf CitationsFile
	if err := readJSON(citationsPath, &cf); err != nil {
		return nil, LoadReport{}, fmt.Errorf("reading citations: %w", err)
	}

	papers := make([]Paper, 0, len(pf.Papers))
	for id, p := range pf.Papers {
		if p.PaperID == "" {
			p.PaperID = id
		}
		papers = append(papers, p)
	}

	outbound := make(map[string][]Citation, len(cf.P))
	for src, list := range cf.P {
		cits := make([]Citation, 0, len(list.Citations))
		for _, raw := range list.Citations {
			cits = append(cits, raw.Citation(src))
		}
		outbound[src] = cits
	}

	return NewStore(papers, outbound, opts)
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

// WritePapers writes papers in the allPapers.json layout.
func WritePapers(path string, papers []Paper) error {
	pf := PapersFile{Papers: make(map[string]Paper, len(papers))}
	for _, p := range papers {
		pf.Papers[p.PaperID] = p
	}
	return writeJSON(path, pf)
}

// WriteCitations writes outbound references in the allCitations.json layout.
func WriteCitations(path string, outbound map[string][]RawCitation) error {
	cf := CitationsFile{P: make(map[string]CitationList, len(outbound))}
	for id, refs := range outbound {
		if refs == nil {
			refs = []RawCitation{}
		}
		cf.P[id] = CitationList{Citations: refs}
	}
	return writeJSON(path, cf)
}

func writeJSON(path string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

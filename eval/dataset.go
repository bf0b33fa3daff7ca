package eval

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	transcript "github.com/iKozay/TrackMyDegree-sub000"
)

// Dataset is a collection of transcripts with known-good parses.
type Dataset struct {
	Name  string `json:"name"`
	Cases []Case `json:"cases"`

	// dir resolves relative case files. Set by LoadDataset.
	dir string
}

// Case is a single document and the transcript it should produce. Exactly one
// of File and Text is set; Text is parsed as a plain-text transcript.
type Case struct {
	Name     string                      `json:"name"`
	File     string                      `json:"file,omitempty"`
	Text     string                      `json:"text,omitempty"`
	Category string                      `json:"category,omitempty"` // e.g. coop, transfer, multi-page
	Expected transcript.ParsedTranscript `json:"expected"`
}

// LoadDataset reads a JSON dataset. Relative case files are resolved against
// the dataset's directory.
func LoadDataset(path string) (Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Dataset{}, fmt.Errorf("reading dataset: %w", err)
	}
	var ds Dataset
	if err := json.Unmarshal(data, &ds); err != nil {
		return Dataset{}, fmt.Errorf("decoding dataset %s: %w", path, err)
	}
	if ds.Name == "" {
		ds.Name = filepath.Base(path)
	}
	ds.dir = filepath.Dir(path)

	for i, c := range ds.Cases {
		if (c.File == "") == (c.Text == "") {
			return Dataset{}, fmt.Errorf("dataset %s case %d (%s): exactly one of file and text is required", path, i, c.Name)
		}
	}
	return ds, nil
}

func (ds Dataset) resolve(file string) string {
	if filepath.IsAbs(file) || ds.dir == "" {
		return file
	}
	return filepath.Join(ds.dir, file)
}

// SampleDataset returns built-in plain-text cases covering the common record
// shapes.
func SampleDataset() Dataset {
	return Dataset{
		Name: "Sample - Plain Text Records",
		Cases: []Case{
			{
				Name:     "two terms",
				Category: "basic",
				Text: `Fall 2022
COMP 248 EC 3.50 A-
Term GPA 3.70
Winter 2023
COMP 249 EC 3.50 B+`,
				Expected: transcript.ParsedTranscript{
					ProgramInfo: &transcript.ProgramInfo{FirstTerm: "Fall 2022", LastTerm: "Winter 2023"},
					Semesters: []transcript.Semester{
						{Term: "Fall 2022", Courses: []transcript.Course{{Code: "COMP248", Grade: "A-"}}},
						{Term: "Winter 2023", Courses: []transcript.Course{{Code: "COMP249", Grade: "B+"}}},
					},
					ExemptedCourses:   []string{},
					TransferedCourses: []string{},
					DeficiencyCourses: []string{},
				},
			},
			{
				Name:     "transfer credits",
				Category: "transfer",
				Text: `Fall 2022
COMP 248 EC 3.50 A-
Transfer Credits
MATH 205 Calculus TRC 2019 3.00`,
				Expected: transcript.ParsedTranscript{
					ProgramInfo: &transcript.ProgramInfo{FirstTerm: "Fall 2022", LastTerm: "Fall 2022"},
					Semesters: []transcript.Semester{
						{Term: "Transfer Credits 2019", Courses: []transcript.Course{{Code: "MATH205", Grade: "TRC"}}},
						{Term: "Fall 2022", Courses: []transcript.Course{{Code: "COMP248", Grade: "A-"}}},
					},
					ExemptedCourses:   []string{},
					TransferedCourses: []string{"MATH205"},
					DeficiencyCourses: []string{},
				},
			},
		},
	}
}

package sheet

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const (
	// TemplateFileName is the suggested download name.
	TemplateFileName = "demo-quiz-template.xlsx"
	// TemplateSheet names the only sheet in the template workbook.
	TemplateSheet = "Quiz Template"
)

// TemplateHeader is the column contract consumed by ParseRows.
var TemplateHeader = []string{
	"Question Text", "Question Type",
	"Option 1", "Option 2", "Option 3", "Option 4", "Option 5",
	"Correct Answer", "Time in seconds", "Image Link", "Answer explanation",
}

var templateInstructions = []string{
	"Text of the question\n\n(required)",
	"Question Type\n\n(default is Multiple Choice)",
	"Text for option 1\n\n(required in all cases except open-ended & draw questions)",
	"Text for option 2\n\n(required in all cases except open-ended & draw questions)",
	"Text for option 3\n\n(optional)",
	"Text for option 4\n\n(optional)",
	"Text for option 5\n\n(optional)",
	"The correct option choice (between 1-5).\n\nLeave blank for \"Open-Ended\", \"Poll\", \"Draw\" and \"Fill-in-the-Blank\".",
	"Time in seconds\n\n(optional, default value is 30 seconds)",
	"Link of the image\n\n(optional)",
	"Explanation for the answer\n(optional)",
}

var templateExamples = [][]string{
	{
		"Which of these is the largest planet in the Solar System?", "Multiple Choice",
		"Earth", "Mars", "Mercury", "Jupiter", "Pluto", "4", "20",
		"https://cdn.pixabay.com/photo/2014/09/08/09/24/solar-system-439046_1280.jpg",
		"Jupiter is a gas giant made primarily of hydrogen and helium. Unlike terrestrial planets that have solid surfaces, gas giants like Jupiter don't have a well-defined solid surface, allowing them to accumulate more mass in a gaseous form. This composition has allowed Jupiter to grow significantly larger than planets with solid surfaces.",
	},
	{
		"What is the capital of France?", "Multiple Choice",
		"London", "Berlin", "Paris", "Madrid", "Rome", "3", "15", "",
		"Paris is the capital and most populous city of France. It has been the capital since 987 AD, and is located in the north-central part of the country.",
	},
	{
		"Which year did World War II end?", "Multiple Choice",
		"1944", "1945", "1946", "1947", "", "2", "25", "",
		"World War II ended in 1945 with the surrender of Japan on September 2, 1945, following the atomic bombings of Hiroshima and Nagasaki.",
	},
	{
		"What is the chemical symbol for gold?", "Multiple Choice",
		"Go", "Gd", "Au", "Ag", "Al", "3", "20", "",
		"Au is the chemical symbol for gold, derived from the Latin word \"aurum\" meaning gold.",
	},
	{
		"Which programming language is known for its use in data science?", "Multiple Choice",
		"JavaScript", "Python", "HTML", "CSS", "", "2", "30", "",
		"Python is widely used in data science due to its extensive libraries like NumPy, Pandas, and Scikit-learn.",
	},
}

// TemplateRows returns header, instructions and example rows, in sheet order.
func TemplateRows() [][]string {
	rows := make([][]string, 0, 2+len(templateExamples))
	rows = append(rows, append([]string(nil), TemplateHeader...))
	rows = append(rows, append([]string(nil), templateInstructions...))
	for _, ex := range templateExamples {
		rows = append(rows, append([]string(nil), ex...))
	}
	return rows
}

// WriteTemplate encodes TemplateRows as an xlsx workbook.
func WriteTemplate(w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), TemplateSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	for i, row := range TemplateRows() {
		axis, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(TemplateSheet, axis, &values); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	return f.Write(w)
}

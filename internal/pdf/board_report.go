package pdf

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jung-kurt/gofpdf"

	"vtask/internal/models"
)

// Generator renders board reports. Interface kept for test doubles.
type Generator interface {
	GenerateBoardReport(data BoardReportData) (string, error)
}

type BoardReportGenerator struct {
	RootDir string
}

type BoardReportData struct {
	OwnerEmail string
	Columns    map[models.Status][]models.Task
	TrashCount int
	CreatedAt  time.Time
	Filename   string // file name only; generated when empty
}

func NewBoardReportGenerator(rootDir string) *BoardReportGenerator {
	return &BoardReportGenerator{RootDir: filepath.Clean(rootDir)}
}

var columnTitles = map[models.Status]string{
	models.StatusPlanned: "Planned",
	models.StatusToday:   "Today",
	models.StatusDone:    "Done",
}

// GenerateBoardReport writes a one-page-per-need PDF snapshot of the board
// and returns the absolute file path.
func (g *BoardReportGenerator) GenerateBoardReport(data BoardReportData) (string, error) {
	filename := data.Filename
	if filename == "" {
		filename = fmt.Sprintf("board_%s.pdf", data.CreatedAt.Format("20060102_150405"))
	}
	absPath, err := g.ensureTarget(filename)
	if err != nil {
		return "", err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Vtask board report", false)
	pdf.SetAuthor("Vtask", false)
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 10, "Board report", "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 11)
	sub := fmt.Sprintf("%s — %s", data.OwnerEmail, data.CreatedAt.Format("02.01.2006 15:04"))
	pdf.CellFormat(0, 7, sub, "", 1, "C", false, 0, "")
	g.hr(pdf)
	pdf.Ln(3)

	for _, status := range models.VisibleStatuses {
		tasks := data.Columns[status]
		g.sectionTitle(pdf, fmt.Sprintf("%s (%d)", columnTitles[status], len(tasks)))

		if len(tasks) == 0 {
			pdf.SetFont("Helvetica", "I", 10)
			pdf.MultiCell(0, 6, "empty", "", "L", false)
		}
		for _, task := range tasks {
			box := "[ ]"
			if task.Completed {
				box = "[x]"
			}
			pdf.SetFont("Helvetica", "", 11)
			line := fmt.Sprintf("%s %s  (%s)", box, task.Title, task.Priority)
			pdf.MultiCell(0, 6, line, "", "L", false)
			if task.Note != "" {
				pdf.SetFont("Helvetica", "I", 9)
				pdf.SetX(26)
				pdf.MultiCell(0, 5, task.Note, "", "L", false)
			}
		}
		pdf.Ln(2)
		g.hr(pdf)
	}

	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 8, fmt.Sprintf("Tasks in trash: %d", data.TrashCount), "", 1, "L", false, 0, "")

	if err := pdf.OutputFileAndClose(absPath); err != nil {
		return "", fmt.Errorf("write board report: %w", err)
	}
	return absPath, nil
}

func (g *BoardReportGenerator) ensureTarget(filename string) (string, error) {
	if err := os.MkdirAll(g.RootDir, 0o755); err != nil {
		return "", fmt.Errorf("create files dir: %w", err)
	}
	filename = filepath.Base(filename)
	return filepath.Join(g.RootDir, filename), nil
}

func (g *BoardReportGenerator) sectionTitle(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(0, 8, title, "", 1, "L", false, 0, "")
}

func (g *BoardReportGenerator) hr(pdf *gofpdf.Fpdf) {
	pdf.SetLineWidth(0.3)
	x, y := pdf.GetX(), pdf.GetY()
	pdf.Line(20, y, 190, y)
	pdf.SetXY(x, y+2)
}

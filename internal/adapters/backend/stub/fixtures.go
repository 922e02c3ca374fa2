package stub

import (
	"sort"
	"strings"

	"github.com/bnema/rag-agents-cli/internal/domain"
)

// File is a document stored under a folder of the sample drive.
type File struct {
	Name    string
	Content string
}

// Drive is a static folder tree standing in for the document store.
type Drive struct {
	names    map[string]string
	children map[string][]string
	files    map[string][]File
}

func NewDrive() *Drive {
	return &Drive{
		names:    map[string]string{domain.RootFolderID: domain.RootFolderID},
		children: map[string][]string{},
		files:    map[string][]File{},
	}
}

// AddFolder registers id under parent. Adding an existing id renames it.
func (d *Drive) AddFolder(parent, id, name string) *Drive {
	if _, exists := d.names[id]; !exists {
		d.children[parent] = append(d.children[parent], id)
	}
	d.names[id] = name
	return d
}

func (d *Drive) AddFile(folderID string, file File) *Drive {
	d.files[folderID] = append(d.files[folderID], file)
	return d
}

func (d *Drive) FolderName(id string) (string, bool) {
	name, ok := d.names[id]
	return name, ok
}

func (d *Drive) Children(parentID string) []domain.FolderNode {
	ids := d.children[parentID]
	folders := make([]domain.FolderNode, 0, len(ids))
	for _, id := range ids {
		folders = append(folders, domain.FolderNode{ID: id, Name: d.names[id]})
	}
	sort.SliceStable(folders, func(i, j int) bool {
		return strings.ToLower(folders[i].Name) < strings.ToLower(folders[j].Name)
	})
	return folders
}

// FilesUnder returns the files of id and all of its descendants.
func (d *Drive) FilesUnder(id string) []File {
	var files []File
	queue := []string{id}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		files = append(files, d.files[current]...)
		queue = append(queue, d.children[current]...)
	}
	return files
}

func (d *Drive) File(name string) (File, bool) {
	for _, files := range d.files {
		for _, file := range files {
			if file.Name == name {
				return file, true
			}
		}
	}
	return File{}, false
}

// SampleDrive is the tree served by `ra dev-backend`.
func SampleDrive() *Drive {
	d := NewDrive()
	d.AddFolder(domain.RootFolderID, "01HRFOLDER7A2B", "HR")
	d.AddFolder(domain.RootFolderID, "01ENGFOLDER9C4D", "Engineering")
	d.AddFolder(domain.RootFolderID, "01FINFOLDER3E6F", "Finance")
	d.AddFolder("01HRFOLDER7A2B", "01HRPOLICIES1A1", "Policies")
	d.AddFolder("01ENGFOLDER9C4D", "01ENGRUNBOOKS2B", "Runbooks")
	d.AddFolder("01ENGFOLDER9C4D", "01ENGDESIGN3C3C", "Design Docs")

	d.AddFile("01HRPOLICIES1A1", File{
		Name:    "leave-policy.docx",
		Content: "Employees accrue 20 days of paid leave per year. Unused leave carries over up to 5 days.\nSick leave is separate and unlimited with a doctor's note.",
	})
	d.AddFile("01HRPOLICIES1A1", File{
		Name:    "remote-work.pdf",
		Content: "Remote work is allowed up to three days per week.\nTeams agree on one shared office day.",
	})
	d.AddFile("01ENGRUNBOOKS2B", File{
		Name:    "on-call.md",
		Content: "The on-call engineer acknowledges pages within 15 minutes.\nEscalate to the team lead after 30 minutes without progress.",
	})
	d.AddFile("01ENGDESIGN3C3C", File{
		Name:    "ingestion-pipeline.md",
		Content: "Documents are downloaded, split into chunks of 1000 characters and embedded.\nEach agent keeps its own vector index.",
	})
	d.AddFile("01FINFOLDER3E6F", File{
		Name:    "expenses.xlsx",
		Content: "Expense reports are due by the fifth business day of the month.\nReceipts are required above 25 EUR.",
	})
	return d
}

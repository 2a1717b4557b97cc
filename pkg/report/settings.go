package report

import (
	"os"
	"path/filepath"
	"text/template"
)

// settingsTemplate is a minimal Maven settings.xml that pins resolution to
// the mirrored repository and forbids remote access.
var settingsTemplate = template.Must(template.New("settings").Parse(`<?xml version="1.0" encoding="UTF-8"?>
<settings xmlns="http://maven.apache.org/SETTINGS/1.0.0">
  <offline>true</offline>
  <mirrors>
    <mirror>
      <id>offline-mirror</id>
      <name>Local mirrored repository</name>
      <url>file://{{.Repo}}</url>
      <mirrorOf>*</mirrorOf>
    </mirror>
  </mirrors>
</settings>
`))

// WriteOfflineSettings writes a settings.xml that lets Maven build against
// the mirrored repository without network access. The repository path is
// made absolute so the file works from any working directory.
func WriteOfflineSettings(path, targetRepo string) error {
	abs, err := filepath.Abs(targetRepo)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return settingsTemplate.Execute(f, struct{ Repo string }{Repo: abs})
}

package pom

import (
	"testing"

	"github.com/matzehuels/mvnmirror/pkg/artifact"
)

const samplePOM = `<?xml version="1.0" encoding="UTF-8"?>
<project xmlns="http://maven.apache.org/POM/4.0.0">
  <groupId>com.example</groupId>
  <artifactId>app</artifactId>
  <version>1.0.0</version>
  <dependencies>
    <dependency>
      <groupId>com.google.guava</groupId>
      <artifactId>guava</artifactId>
      <version>31.1-jre</version>
    </dependency>
    <dependency>
      <groupId>org.slf4j</groupId>
      <artifactId>slf4j-api</artifactId>
      <version>1.7.36</version>
      <scope>provided</scope>
      <optional>true</optional>
    </dependency>
    <dependency>
      <groupId>${project.groupId}</groupId>
      <artifactId>sibling</artifactId>
      <version>${project.version}</version>
    </dependency>
  </dependencies>
  <dependencyManagement>
    <dependencies>
      <dependency>
        <groupId>org.junit</groupId>
        <artifactId>junit-bom</artifactId>
        <version>5.9.1</version>
      </dependency>
    </dependencies>
  </dependencyManagement>
  <build>
    <plugins>
      <plugin>
        <groupId>org.apache.maven.plugins</groupId>
        <artifactId>maven-compiler-plugin</artifactId>
        <version>3.10.1</version>
      </plugin>
      <plugin>
        <artifactId>maven-surefire-plugin</artifactId>
      </plugin>
    </plugins>
  </build>
</project>`

func TestParseIdentity(t *testing.T) {
	p, err := Parse([]byte(samplePOM))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if p.Coordinate() != "com.example:app" {
		t.Errorf("coordinate = %q", p.Coordinate())
	}
}

func TestDirectRecords(t *testing.T) {
	p, err := Parse([]byte(samplePOM))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	recs := p.DirectRecords()
	// The ${property} declaration must be skipped.
	if len(recs) != 2 {
		t.Fatalf("got %d direct records: %+v", len(recs), recs)
	}

	guava := recs[0]
	if guava.Key.String() != "com.google.guava:guava" || guava.Version != "31.1-jre" {
		t.Errorf("guava = %+v", guava)
	}
	if guava.Scope != artifact.ScopeCompile || guava.Optional {
		t.Errorf("guava defaults wrong: %+v", guava)
	}
	if guava.Source != artifact.SourceDirect {
		t.Errorf("guava source = %s", guava.Source)
	}

	slf4j := recs[1]
	if slf4j.Scope != artifact.ScopeProvided || !slf4j.Optional {
		t.Errorf("slf4j = %+v", slf4j)
	}
}

func TestManagedRecords(t *testing.T) {
	p, err := Parse([]byte(samplePOM))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	recs := p.ManagedRecords()
	if len(recs) != 1 {
		t.Fatalf("got %d managed records", len(recs))
	}
	if recs[0].Key.String() != "org.junit:junit-bom" || recs[0].Source != artifact.SourceManaged {
		t.Errorf("managed = %+v", recs[0])
	}
}

func TestPluginRecords(t *testing.T) {
	p, err := Parse([]byte(samplePOM))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	recs := p.PluginRecords()
	if len(recs) != 2 {
		t.Fatalf("got %d plugin records", len(recs))
	}

	compiler := recs[0]
	if compiler.Packaging != artifact.PackagingPlugin || compiler.Scope != artifact.ScopePlugin {
		t.Errorf("compiler = %+v", compiler)
	}
	if compiler.Version != "3.10.1" {
		t.Errorf("compiler version = %q", compiler.Version)
	}

	// Plugin without group gets the default group; without version it gets
	// the LATEST sentinel and must later fail mirroring.
	surefire := recs[1]
	if surefire.Key.GroupID != "org.apache.maven.plugins" {
		t.Errorf("surefire group = %q", surefire.Key.GroupID)
	}
	if surefire.Version != artifact.VersionLatest {
		t.Errorf("surefire version = %q", surefire.Version)
	}
	if surefire.Resolved() {
		t.Error("LATEST plugin must not count as resolved")
	}
}

func TestParseMultiModule(t *testing.T) {
	doc := `<?xml version="1.0"?>
<projects>
  <project>
    <groupId>com.example</groupId>
    <artifactId>parent</artifactId>
    <dependencies>
      <dependency><groupId>a</groupId><artifactId>a</artifactId><version>1</version></dependency>
    </dependencies>
  </project>
  <project>
    <groupId>com.example</groupId>
    <artifactId>child</artifactId>
    <dependencies>
      <dependency><groupId>b</groupId><artifactId>b</artifactId><version>2</version></dependency>
    </dependencies>
  </project>
</projects>`

	p, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if p.ArtifactID != "parent" {
		t.Errorf("identity should come from first module, got %q", p.ArtifactID)
	}
	if len(p.DirectRecords()) != 2 {
		t.Errorf("flattened deps = %d, want 2", len(p.DirectRecords()))
	}
}

func TestParentGroupFallback(t *testing.T) {
	doc := `<project>
  <parent>
    <groupId>com.example</groupId>
    <artifactId>parent</artifactId>
    <version>1.0.0</version>
  </parent>
  <artifactId>child</artifactId>
</project>`
	p, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if p.Coordinate() != "com.example:child" {
		t.Errorf("coordinate = %q", p.Coordinate())
	}
}

func TestDuplicateDependenciesCollapsed(t *testing.T) {
	doc := `<project>
  <artifactId>app</artifactId>
  <dependencies>
    <dependency><groupId>a</groupId><artifactId>a</artifactId><version>1</version></dependency>
    <dependency><groupId>a</groupId><artifactId>a</artifactId><version>2</version></dependency>
  </dependencies>
</project>`
	p, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	recs := p.DirectRecords()
	if len(recs) != 1 || recs[0].Version != "1" {
		t.Errorf("duplicates should collapse first-wins: %+v", recs)
	}
}

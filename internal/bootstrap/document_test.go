package bootstrap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDocumentRoundTripsBytes(t *testing.T) {
	inputs := []string{
		"",
		"[General]\nenabled=true\n",
		"; comment\r\n[General]\r\ntarget_assembly = Silk\\Silk.dll\r\n",
		"no trailing newline",
		"\n\n[a]\n\nk=v\n\n",
	}
	for _, input := range inputs {
		assert.Equal(t, input, ParseDocument([]byte(input)).String())
	}
}

func TestDocumentGet(t *testing.T) {
	doc := ParseDocument([]byte("top=1\n[General]\n; target_assembly=commented\nTarget_Assembly = Silk\\Silk.dll\n[Other]\ntarget_assembly=nope\n"))

	value, ok := doc.Get("general", "target_assembly")
	assert.True(t, ok)
	assert.Equal(t, `Silk\Silk.dll`, value)

	value, ok = doc.Get("", "top")
	assert.True(t, ok)
	assert.Equal(t, "1", value)

	_, ok = doc.Get("General", "missing")
	assert.False(t, ok)
	_, ok = doc.Get("Missing", "target_assembly")
	assert.False(t, ok)
}

func TestDocumentSetReplacesInPlace(t *testing.T) {
	doc := ParseDocument([]byte("# keep me\n[General]\nenabled = true\ntarget_assembly = old\nextra=1\n"))

	assert.True(t, doc.Set("General", "target_assembly", "new"))
	assert.Equal(t, "# keep me\n[General]\nenabled = true\ntarget_assembly=new\nextra=1\n", doc.String())

	assert.False(t, doc.Set("General", "target_assembly", "new"))
}

func TestDocumentSetAppendsToExistingSection(t *testing.T) {
	doc := ParseDocument([]byte("[General]\nenabled=true\n\n[Other]\nx=1\n"))

	doc.Set("General", "target_assembly", "a")
	assert.Equal(t, "[General]\nenabled=true\ntarget_assembly=a\n\n[Other]\nx=1\n", doc.String())
}

func TestDocumentSetAppendsNewSection(t *testing.T) {
	doc := ParseDocument([]byte("[General]\nenabled=true"))

	doc.Set("Chainload", "assembly", "b")
	assert.Equal(t, "[General]\nenabled=true\n\n[Chainload]\nassembly=b\n", doc.String())

	empty := NewDocument()
	empty.Set("General", "enabled", "true")
	assert.Equal(t, "[General]\nenabled=true\n", empty.String())
}

func TestDocumentSetKeepsCRLF(t *testing.T) {
	doc := ParseDocument([]byte("[General]\r\nenabled=true\r\n"))
	doc.Set("Chainload", "assembly", "b")
	assert.Equal(t, "[General]\r\nenabled=true\r\n\r\n[Chainload]\r\nassembly=b\r\n", doc.String())
}

func TestDocumentRemoveSection(t *testing.T) {
	doc := ParseDocument([]byte("[General]\nenabled=true\n\n[Chainload]\nassembly=b\n"))

	assert.True(t, doc.RemoveSection("chainload"))
	assert.Equal(t, "[General]\nenabled=true\n", doc.String())
	assert.False(t, doc.RemoveSection("Chainload"))

	middle := ParseDocument([]byte("[A]\na=1\n[B]\nb=1\n[C]\nc=1\n"))
	middle.RemoveSection("B")
	assert.Equal(t, "[A]\na=1\n[C]\nc=1\n", middle.String())
}

func TestDocumentContainsAndHasSection(t *testing.T) {
	doc := ParseDocument([]byte("; uses BepInEx/core\n[General]\n"))
	assert.True(t, doc.Contains("BepInEx/"))
	assert.False(t, doc.Contains(`Silk\`))
	assert.True(t, doc.HasSection("general"))
	assert.False(t, doc.HasSection("Chainload"))
}

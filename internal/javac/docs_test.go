package javac

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/jls/internal/filestore"
	"github.com/standardbeagle/jls/internal/types"
	"github.com/standardbeagle/jls/pkg/pathutil"
)

const documentedSource = `package demo;

/**
 * A mail sender. Retries are not attempted.
 */
class Mailer {
    /**
     * Sends one message. Blocks until delivery is confirmed.
     *
     * @param to recipient address
     * @param body message text
     */
    void send(String to, String body) {
    }

    void undocumented() {
    }
}
`

func docServiceWithMailer(t *testing.T) *CompilerService {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Mailer.java"), []byte(documentedSource), 0644))
	store := filestore.NewStore()
	store.SetWorkspaceRoots([]string{dir})
	svc := NewCompilerService(store, nil, nil)
	t.Cleanup(svc.Close)
	return svc
}

func TestDocsFindAndParse(t *testing.T) {
	svc := docServiceWithMailer(t)
	docs := svc.Docs()

	ptr := types.NewMemberPtr("demo", "Mailer", "send", []string{"String", "String"})
	uri, ok := docs.Find(ptr)
	require.True(t, ok)
	assert.Equal(t, "Mailer.java", pathutil.FileName(uri))

	parse, ok := docs.Parse(uri)
	require.True(t, ok)

	el, ok := parse.FuzzyFind(ptr)
	require.True(t, ok)
	assert.Equal(t, "send", el.Name)

	doc, ok := parse.Doc(el)
	require.True(t, ok)
	assert.Equal(t, "Sends one message.", doc.FirstSentence)
	assert.Equal(t, "recipient address", doc.Params["to"])
	assert.Equal(t, "message text", doc.Params["body"])
}

func TestDocsFindRejectsWrongPackage(t *testing.T) {
	svc := docServiceWithMailer(t)
	_, ok := svc.Docs().Find(types.NewClassPtr("other", "Mailer"))
	assert.False(t, ok)
}

func TestDocsClassComment(t *testing.T) {
	svc := docServiceWithMailer(t)
	docs := svc.Docs()

	ptr := types.NewClassPtr("demo", "Mailer")
	uri, ok := docs.Find(ptr)
	require.True(t, ok)
	parse, _ := docs.Parse(uri)
	el, ok := parse.FuzzyFind(ptr)
	require.True(t, ok)

	doc, ok := parse.Doc(el)
	require.True(t, ok)
	assert.Equal(t, "A mail sender.", doc.FirstSentence)
}

func TestDocsMissingComment(t *testing.T) {
	svc := docServiceWithMailer(t)
	docs := svc.Docs()

	ptr := types.NewMemberPtr("demo", "Mailer", "undocumented", []string{})
	uri, _ := docs.Find(ptr)
	parse, _ := docs.Parse(uri)
	el, ok := parse.FuzzyFind(ptr)
	require.True(t, ok)

	_, ok = parse.Doc(el)
	assert.False(t, ok)
}

func TestFirstSentenceStopsAtPeriodBeforeSpace(t *testing.T) {
	assert.Equal(t, "Uses v1.2 of the API.", firstSentence("Uses v1.2 of the API. More text."))
	assert.Equal(t, "No trailing period", firstSentence("No trailing period"))
}

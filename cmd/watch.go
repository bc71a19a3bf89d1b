/*
Copyright © 2025 Ambor <saltbo@foxmail.com>

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/eslsoft/untranslatable/internal/entity"
	"github.com/eslsoft/untranslatable/pkg/session"
)

const watchServerKey = "watch.server"

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow the word list live from a terminal",
	Long: `watch connects to a running server, shows one word at a time and follows
new words as they arrive. Commands, each followed by enter:

  n / p                                    next or previous word
  c <text>                                 comment on the displayed word
  a <word> | <language> | <definition> [| <audio file>]
                                           submit a new word
  q                                        quit

When input ends the session keeps following until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		renderer := &terminalRenderer{out: cmd.OutOrStdout()}
		client, err := session.NewClient(viper.GetString(watchServerKey), renderer)
		if err != nil {
			return err
		}

		go func() {
			if readCommands(ctx, cmd.InOrStdin(), cmd.ErrOrStderr(), client, renderer) {
				cancel()
			}
		}()
		return client.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().String("server", "http://localhost:3000", "server base URL")
	bindFlagToViper(watchServerKey, watchCmd.Flags().Lookup("server"))
}

var _ wordSubmitter = (*session.Client)(nil)

// wordSubmitter is the part of session.Client the command loop writes through.
type wordSubmitter interface {
	State() *session.State
	UploadAudio(ctx context.Context, audio io.Reader, filename string) (string, error)
	SubmitWord(ctx context.Context, word, language, definition, audioURL string) (*entity.Word, error)
	AddComment(ctx context.Context, text string) error
}

// readCommands runs commands until q or end of input. It reports whether q was typed.
func readCommands(ctx context.Context, in io.Reader, errOut io.Writer, client wordSubmitter, renderer session.Renderer) bool {
	state := client.State()
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		name, arg, _ := strings.Cut(line, " ")
		arg = strings.TrimSpace(arg)
		switch strings.ToLower(name) {
		case "n", "next":
			state.Next()
		case "p", "prev":
			state.Prev()
		case "q", "quit":
			return true
		case "c", "comment":
			if arg == "" {
				fmt.Fprintln(errOut, "usage: c <text>")
				continue
			}
			if err := client.AddComment(ctx, arg); err != nil {
				fmt.Fprintf(errOut, "comment failed: %v\n", err)
			}
			continue
		case "a", "add":
			if err := submitWord(ctx, client, arg, errOut); err != nil {
				fmt.Fprintf(errOut, "add failed: %v\n", err)
			}
			continue
		default:
			continue
		}
		renderer.Render(state.View())
	}
	return false
}

// submitWord parses "word | language | definition [| audio file]". A failed audio
// upload is reported and the word is submitted without audio.
func submitWord(ctx context.Context, client wordSubmitter, arg string, errOut io.Writer) error {
	fields := strings.Split(arg, "|")
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	if len(fields) < 3 || len(fields) > 4 || fields[0] == "" {
		return fmt.Errorf("usage: a <word> | <language> | <definition> [| <audio file>]")
	}

	audioURL := ""
	if len(fields) == 4 && fields[3] != "" {
		url, err := uploadFile(ctx, client, fields[3])
		if err != nil {
			fmt.Fprintf(errOut, "audio upload failed, submitting without audio: %v\n", err)
		} else {
			audioURL = url
		}
	}
	_, err := client.SubmitWord(ctx, fields[0], fields[1], fields[2], audioURL)
	return err
}

func uploadFile(ctx context.Context, client wordSubmitter, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return client.UploadAudio(ctx, f, filepath.Base(path))
}

type terminalRenderer struct {
	mu  sync.Mutex
	out io.Writer
}

func (r *terminalRenderer) Render(v session.View) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprint(r.out, formatView(v))
}

func formatView(v session.View) string {
	word, ok := v.Current()
	if !ok {
		return "no words yet, waiting for the first one...\n"
	}
	var b strings.Builder
	mode := ""
	if v.Following {
		mode = " (following latest)"
	}
	fmt.Fprintf(&b, "\n[%d/%d]%s\n", v.Cursor+1, len(v.Words), mode)
	fmt.Fprintf(&b, "%s (%s)\n", word.Word, word.Language)
	if word.Definition != "" {
		fmt.Fprintf(&b, "  %s\n", word.Definition)
	}
	if word.HasAudio() {
		fmt.Fprintf(&b, "  audio: %s\n", *word.AudioURL)
	}
	if len(word.Comments) == 0 {
		b.WriteString("  no comments\n")
	}
	for _, c := range word.Comments {
		fmt.Fprintf(&b, "  - %s  %s\n", c.Text, c.Timestamp)
	}
	return b.String()
}

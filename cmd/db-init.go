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
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/eslsoft/untranslatable/internal/entity"
	"github.com/eslsoft/untranslatable/internal/repository"
)

// dbInitCmd prepares the configured document store and seeds an empty dataset
var dbInitCmd = &cobra.Command{
	Use:   "db-init",
	Short: "初始化文档存储",
	Long:  "为 sqlite/postgres 驱动创建 documents 表，并在文档不存在时写入空词库。注意: go-sqlite3 需要 CGO_ENABLED=1 构建。如需仅建表不写入，可使用 --schema-only。",
	RunE: func(cmd *cobra.Command, args []string) error {
		schemaOnly, _ := cmd.Flags().GetBool("schema-only")

		store, cleanup, err := openDocumentStore()
		if err != nil {
			return err
		}
		defer cleanup()

		if err := ensureSchema(cmd.Context(), store); err != nil {
			return err
		}
		if schemaOnly {
			return nil
		}

		seeded, err := seedEmptyDataset(cmd.Context(), store)
		if err != nil {
			return err
		}
		if seeded {
			cmd.Println("已写入空词库")
		} else {
			cmd.Println("文档已存在，跳过写入")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dbInitCmd)
	dbInitCmd.Flags().Bool("schema-only", false, "仅创建表结构，不写入空词库")
}

func ensureSchema(ctx context.Context, store repository.DocumentStore) error {
	initializer, ok := store.(repository.SchemaInitializer)
	if !ok {
		return nil
	}
	if err := initializer.InitSchema(ctx); err != nil {
		return fmt.Errorf("创建表结构失败: %w", err)
	}
	return nil
}

// seedEmptyDataset writes {"words": []} unless a document already exists.
func seedEmptyDataset(ctx context.Context, store repository.DocumentStore) (bool, error) {
	existing, err := store.Read(ctx)
	switch {
	case err != nil && !errors.Is(err, entity.ErrDocumentMissing):
		return false, fmt.Errorf("读取文档失败: %w", err)
	case existing != nil:
		return false, nil
	}
	if err := store.Write(ctx, entity.NewDataset()); err != nil {
		return false, fmt.Errorf("写入空词库失败: %w", err)
	}
	return true, nil
}

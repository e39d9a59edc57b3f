package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/tendant/content-parts/pkg/contentitem"
)

func loadItem(path string) (*contentitem.ContentItem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read item file: %w", err)
	}
	item := &contentitem.ContentItem{}
	if err := json.Unmarshal(data, item); err != nil {
		return nil, fmt.Errorf("failed to decode item file %s: %w", path, err)
	}
	return item, nil
}

// saveItem writes the item through a temp file in the same directory
func saveItem(path string, item *contentitem.ContentItem) error {
	data, err := json.MarshalIndent(item, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode item: %w", err)
	}

	// Keep the mode of an existing file; CreateTemp always uses 0600
	mode := os.FileMode(0644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".partctl-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(mode); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to set file mode: %w", err)
	}
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write item: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write item: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}

// partValue returns the JSON value argument, reading stdin for "-"
func partValue(cmd *cobra.Command, arg string) (json.RawMessage, error) {
	if arg != "-" {
		return json.RawMessage(arg), nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return nil, fmt.Errorf("failed to read stdin: %w", err)
	}
	return data, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

// NewNewCommand creates the new command
func NewNewCommand() *cobra.Command {
	var displayText, owner string
	var force bool

	cmd := &cobra.Command{
		Use:   "new <file> <content-type>",
		Short: "Create an empty content item file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("file already exists: %s (use --force to overwrite)", path)
			}

			item := contentitem.New(args[1])
			item.DisplayText = displayText
			item.Owner = owner
			if err := saveItem(path, item); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s item %s\n", item.ContentType, item.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&displayText, "display-text", "", "display text of the item")
	cmd.Flags().StringVar(&owner, "owner", "", "owner of the item")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")

	return cmd
}

// NewShowCommand creates the show command
func NewShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <file>",
		Short: "Print a content item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			item, err := loadItem(args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, item)
		},
	}
}

// NewPartsCommand creates the parts command
func NewPartsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "parts <file>",
		Short: "List the part names of a content item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			item, err := loadItem(args[0])
			if err != nil {
				return err
			}
			for _, name := range item.PartNames() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

// NewGetCommand creates the get command
func NewGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get <file> <part>",
		Short: "Print a single part",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			item, err := loadItem(args[0])
			if err != nil {
				return err
			}
			raw, err := item.RawPart(args[1])
			if err != nil {
				return err
			}
			return printJSON(cmd, raw)
		},
	}
}

// NewWeldCommand creates the weld command
func NewWeldCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "weld <file> <part> <json|->",
		Short: "Attach a part unless one with that name exists",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			item, err := loadItem(args[0])
			if err != nil {
				return err
			}
			raw, err := partValue(cmd, args[2])
			if err != nil {
				return err
			}
			welded, err := item.WeldRawPart(args[1], raw)
			if err != nil {
				return err
			}
			if !welded {
				fmt.Fprintf(cmd.OutOrStdout(), "Part %s already present, left unchanged\n", args[1])
				return nil
			}
			if err := saveItem(args[0], item); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Welded part %s\n", args[1])
			return nil
		},
	}
}

// NewApplyCommand creates the apply command
func NewApplyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "apply <file> <part> <json|->",
		Short: "Store a part, replacing any existing value",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			item, err := loadItem(args[0])
			if err != nil {
				return err
			}
			raw, err := partValue(cmd, args[2])
			if err != nil {
				return err
			}
			if err := item.SetRawPart(args[1], raw); err != nil {
				return err
			}
			if err := saveItem(args[0], item); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Applied part %s\n", args[1])
			return nil
		},
	}
}

// NewAlterCommand creates the alter command
func NewAlterCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "alter <file> <part> <json-object|->",
		Short: "Merge top-level fields into a part, creating it when absent",
		Long:  `Merge the fields of a JSON object into a part. A null field removes that field.`,
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			item, err := loadItem(args[0])
			if err != nil {
				return err
			}
			patch, err := partValue(cmd, args[2])
			if err != nil {
				return err
			}
			if err := item.MergeRawPart(args[1], patch); err != nil {
				return err
			}
			if err := saveItem(args[0], item); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Altered part %s\n", args[1])
			return nil
		},
	}
}

// NewRemoveCommand creates the remove command
func NewRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <file> <part>",
		Short: "Remove a part",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			item, err := loadItem(args[0])
			if err != nil {
				return err
			}
			if !item.RemovePart(args[1]) {
				return fmt.Errorf("part %s not found", args[1])
			}
			if err := saveItem(args[0], item); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed part %s\n", args[1])
			return nil
		},
	}
}

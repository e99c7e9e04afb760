package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/fbuehrmann/netxms/pkg/objects"
	"github.com/fbuehrmann/netxms/pkg/output"
)

// objectRow is the table view of an object.
type objectRow struct {
	ID        uint64         `table:"ID"`
	Name      string         `table:"NAME"`
	Class     objects.Class  `table:"CLASS"`
	Status    objects.Status `table:"STATUS"`
	PrimaryIP string         `table:"PRIMARY IP"`
	Parents   []uint64       `table:"PARENTS"`
	Children  []uint64       `table:"CHILDREN"`
}

func newObjectRow(o *objects.Object) objectRow {
	r := objectRow{
		ID:       o.ID,
		Name:     o.Name,
		Class:    o.Class,
		Status:   o.Status,
		Parents:  o.Parents.Sorted(),
		Children: o.Children.Sorted(),
	}
	if o.PrimaryIP.IsValid() {
		r.PrimaryIP = o.PrimaryIP.String()
	}
	return r
}

// renderOne and renderList pick the output shape. Tables get the compact
// row view, JSON and YAML the full object.
func (a *app) renderOne(o *objects.Object) any {
	if a.isTable() {
		return newObjectRow(o)
	}
	return o
}

func (a *app) renderList(objs []*objects.Object) any {
	if !a.isTable() {
		return objs
	}
	rows := make([]objectRow, len(objs))
	for i, o := range objs {
		rows[i] = newObjectRow(o)
	}
	return rows
}

func (a *app) isTable() bool {
	_, ok := a.formatter.(*output.TableFormatter)
	return ok
}

func parseObjectID(s string) (uint64, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid object id %q", s)
	}
	return id, nil
}

func (a *app) newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <object-id>",
		Short: "Show one object",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseObjectID(args[0])
			if err != nil {
				return err
			}
			s, err := a.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer a.disconnect(s)

			o, ok := s.Store().FindByID(id)
			if !ok {
				return fmt.Errorf("object %d not found", id)
			}
			fmt.Fprint(cmd.OutOrStdout(), a.formatter.Format(a.renderOne(o)))
			return nil
		},
	}
}

func (a *app) newDescendantsCmd() *cobra.Command {
	var className string
	cmd := &cobra.Command{
		Use:   "descendants <object-id>",
		Short: "List all objects below an object",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseObjectID(args[0])
			if err != nil {
				return err
			}
			class := objects.ClassAny
			if className != "" {
				if class, err = objects.ParseClass(className); err != nil {
					return err
				}
			}
			s, err := a.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer a.disconnect(s)

			if _, ok := s.Store().FindByID(id); !ok {
				return fmt.Errorf("object %d not found", id)
			}
			found := s.Store().CollectDescendants(id, class)
			fmt.Fprint(cmd.OutOrStdout(), a.formatter.Format(a.renderList(found)))
			return nil
		},
	}
	cmd.Flags().StringVar(&className, "class", "", "only list objects of this class (name or number)")
	return cmd
}

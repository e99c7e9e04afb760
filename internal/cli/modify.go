package cli

import (
	"errors"
	"fmt"
	"maps"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fbuehrmann/netxms/pkg/modify"
	"github.com/fbuehrmann/netxms/pkg/objects"
)

// modifyOptions holds the flags of the modify command.
type modifyOptions struct {
	name        string
	description string
	attrs       []string
	acl         []string
	inheritACL  bool
	reportFile  string
	snmpVersion string
	geo         string
	dryRun      bool
}

var modifyFlags = []string{"name", "description", "attr", "acl", "inherit-acl", "report-file", "snmp-version", "geo"}

func (a *app) newModifyCmd() *cobra.Command {
	opts := &modifyOptions{}
	cmd := &cobra.Command{
		Use:   "modify <object-id>",
		Short: "Change object properties",
		Long: `modify sends one modification carrying only the properties given on the
command line. --attr merges into the object's current custom attributes;
--acl replaces the access list.`,
		Example: `  nxctl modify 1042 --name core-sw-01 --attr rack=4 --attr row=B
  nxctl modify 1042 --acl 1:0xFFFF --inherit-acl=false
  nxctl modify 1042 --snmp-version v2c --geo 52.52,13.40 --dry-run`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseObjectID(args[0])
			if err != nil {
				return err
			}
			changed := false
			for _, f := range modifyFlags {
				changed = changed || cmd.Flags().Changed(f)
			}
			if !changed {
				return errors.New("nothing to modify: give at least one property flag")
			}

			if opts.dryRun {
				mod, err := opts.build(cmd, id, nil)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "(dry-run) would modify object %d: %s\n", id, mod.Flags())
				return nil
			}

			s, err := a.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer a.disconnect(s)

			current, ok := s.Store().FindByID(id)
			if !ok {
				return fmt.Errorf("object %d not found", id)
			}
			mod, err := opts.build(cmd, id, current)
			if err != nil {
				return err
			}
			if err := s.Modify(cmd.Context(), mod); err != nil {
				return fmt.Errorf("failed to modify object %d: %w", id, err)
			}
			a.log.Debugf("modified object %d: %s", id, mod.Flags())

			if o, ok := s.Store().FindByID(id); ok {
				fmt.Fprint(cmd.OutOrStdout(), a.formatter.Format(a.renderOne(o)))
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.name, "name", "", "new object name")
	f.StringVar(&opts.description, "description", "", "new description")
	f.StringArrayVar(&opts.attrs, "attr", nil, "set a custom attribute, key=value (repeatable; empty value removes the key)")
	f.StringArrayVar(&opts.acl, "acl", nil, "access list entry, user:rights (repeatable; replaces the list)")
	f.BoolVar(&opts.inheritACL, "inherit-acl", true, "inherit access rights from parents")
	f.StringVar(&opts.reportFile, "report-file", "", "load the report definition from this file")
	f.StringVar(&opts.snmpVersion, "snmp-version", "", "SNMP version: 1, 2c or 3")
	f.StringVar(&opts.geo, "geo", "", "manual geolocation, latitude,longitude")
	f.BoolVar(&opts.dryRun, "dry-run", false, "print the fields that would be sent without connecting")
	return cmd
}

// build turns the flags into a Modification. current is the object as the
// server last reported it, or nil in a dry run.
func (o *modifyOptions) build(cmd *cobra.Command, id uint64, current *objects.Object) (*modify.Modification, error) {
	mod := modify.New(id)
	flags := cmd.Flags()

	if flags.Changed("name") {
		mod.SetName(o.name)
	}
	if flags.Changed("description") {
		mod.SetDescription(o.description)
	}

	if flags.Changed("attr") {
		attrs := map[string]string{}
		if current != nil {
			maps.Copy(attrs, current.CustomAttributes)
		}
		for _, kv := range o.attrs {
			k, v, ok := strings.Cut(kv, "=")
			if !ok || k == "" {
				return nil, fmt.Errorf("invalid --attr %q: want key=value", kv)
			}
			if v == "" {
				delete(attrs, k)
				continue
			}
			attrs[k] = v
		}
		mod.SetCustomAttributes(attrs)
	}

	// The access list and the inherit flag travel together, so a change
	// to one resends the current value of the other.
	aclChanged, inheritChanged := flags.Changed("acl"), flags.Changed("inherit-acl")
	if aclChanged || inheritChanged {
		var acl []objects.AccessEntry
		inherit := o.inheritACL
		if current != nil {
			acl = current.ACL
			if !inheritChanged {
				inherit = current.InheritAccessRights
			}
		}
		if aclChanged {
			parsed, err := parseACL(o.acl)
			if err != nil {
				return nil, err
			}
			acl = parsed
		}
		mod.SetACL(acl)
		mod.SetInheritAccessRights(inherit)
	}

	if flags.Changed("report-file") {
		if err := mod.SetReportDefinitionFile(o.reportFile); err != nil {
			return nil, err
		}
	}
	if flags.Changed("snmp-version") {
		v, err := modify.ParseSNMPVersion(o.snmpVersion)
		if err != nil {
			return nil, err
		}
		if err := mod.SetSNMPVersion(v); err != nil {
			return nil, err
		}
	}
	if flags.Changed("geo") {
		loc, err := parseGeo(o.geo)
		if err != nil {
			return nil, err
		}
		mod.SetGeolocation(loc)
	}
	return mod, nil
}

// parseACL parses user:rights entries. Rights accept any base strconv
// understands, so 0xFFFF works.
func parseACL(entries []string) ([]objects.AccessEntry, error) {
	acl := make([]objects.AccessEntry, 0, len(entries))
	for _, e := range entries {
		u, r, ok := strings.Cut(e, ":")
		if !ok {
			return nil, fmt.Errorf("invalid --acl %q: want user:rights", e)
		}
		user, err := strconv.ParseUint(u, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid --acl %q: user: %w", e, err)
		}
		rights, err := strconv.ParseUint(r, 0, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid --acl %q: rights: %w", e, err)
		}
		acl = append(acl, objects.AccessEntry{UserID: uint32(user), Rights: uint32(rights)})
	}
	return acl, nil
}

func parseGeo(s string) (objects.GeoLocation, error) {
	lat, lon, ok := strings.Cut(s, ",")
	if !ok {
		return objects.GeoLocation{}, fmt.Errorf("invalid --geo %q: want latitude,longitude", s)
	}
	la, err := strconv.ParseFloat(strings.TrimSpace(lat), 64)
	if err != nil || la < -90 || la > 90 {
		return objects.GeoLocation{}, fmt.Errorf("invalid --geo latitude %q", lat)
	}
	lo, err := strconv.ParseFloat(strings.TrimSpace(lon), 64)
	if err != nil || lo < -180 || lo > 180 {
		return objects.GeoLocation{}, fmt.Errorf("invalid --geo longitude %q", lon)
	}
	return objects.GeoLocation{Type: objects.GeoManual, Latitude: la, Longitude: lo}, nil
}

package alignctl

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"alignd/pkg/types"
)

// Config carries the persistent CLI settings.
type Config struct {
	Server  string
	Timeout time.Duration
}

func defaultConfig() *Config {
	server := os.Getenv("ALIGNCTL_SERVER")
	if server == "" {
		server = "http://127.0.0.1:8080"
	}
	return &Config{Server: server, Timeout: 30 * time.Second}
}

// Main is the CLI entry point. It returns a process exit code.
func Main(args []string) int {
	root := buildRootCmd(defaultConfig())
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	return 0
}

// buildRootCmd constructs the Cobra command tree.
func buildRootCmd(cfg *Config) *cobra.Command {
	root := &cobra.Command{
		Use:           "alignctl",
		Short:         "Control a running alignd server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfg.Server, "server", cfg.Server, "Base URL of the alignd server (defaults ALIGNCTL_SERVER or http://127.0.0.1:8080)")
	root.PersistentFlags().DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "HTTP request timeout")

	client := func() *Client { return NewClient(strings.TrimRight(cfg.Server, "/"), cfg.Timeout) }

	models := &cobra.Command{Use: "models", Short: "List models known to the server", RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := client().Models()
		if err != nil {
			return err
		}
		for _, m := range resp.Models {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%d bytes\n", m.ID, m.Format, m.SizeBytes)
		}
		return nil
	}}

	status := &cobra.Command{Use: "status", Short: "Show cache and session status", RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := client().Status()
		if err != nil {
			return err
		}
		return printJSON(cmd, resp)
	}}

	prefetch := &cobra.Command{Use: "prefetch <model-id>", Short: "Warm a model into the cache", Args: cobra.ExactArgs(1), RunE: func(cmd *cobra.Command, args []string) error {
		if err := client().Prefetch(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "warming %s\n", args[0])
		return nil
	}}

	placements := &cobra.Command{Use: "placements [model-id]", Short: "Show committed placements", Args: cobra.MaximumNArgs(1), RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			p, err := client().Placement(args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, p)
		}
		resp, err := client().Placements()
		if err != nil {
			return err
		}
		return printJSON(cmd, resp)
	}}

	var polygonSpecs []string
	var polygonsFile string
	var wait time.Duration
	enter := &cobra.Command{
		Use:     "enter <model-id>",
		Short:   "Start an alignment session",
		Example: "  alignctl enter townhall.glb --polygon \"p1:0,0;8,0;8,5;0,5\"\n  alignctl enter townhall.glb --polygons-file footprints.json --wait 30s",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var polys []types.Polygon
			if polygonsFile != "" {
				loaded, err := loadPolygonsFile(polygonsFile)
				if err != nil {
					return err
				}
				polys = loaded
			}
			for _, spec := range polygonSpecs {
				p, err := parsePolygonSpec(spec)
				if err != nil {
					return err
				}
				polys = append(polys, p)
			}
			if len(polys) == 0 {
				return fmt.Errorf("provide at least one --polygon or --polygons-file")
			}
			c := client()
			sess, err := c.Enter(types.AlignEnterRequest{ModelID: args[0], Polygons: polys})
			if err != nil {
				return err
			}
			if wait > 0 {
				sess, err = c.WaitAligning(wait)
				if err != nil {
					return err
				}
				if sess.LastError != "" {
					return fmt.Errorf("session failed: %s", sess.LastError)
				}
			}
			return printJSON(cmd, sess)
		},
	}
	enter.Flags().StringArrayVar(&polygonSpecs, "polygon", nil, "Footprint as id:x,y;x,y;... (repeatable)")
	enter.Flags().StringVar(&polygonsFile, "polygons-file", "", "JSON file with footprint polygons")
	enter.Flags().DurationVar(&wait, "wait", 0, "Poll until the session leaves preparing")

	var translate, rotateDeg, scale string
	transform := &cobra.Command{
		Use:     "transform",
		Short:   "Adjust the session transform",
		Example: "  alignctl transform --translate 1.5,0,0\n  alignctl transform --rotate-deg 90 --scale 0.8",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := client()
			st, err := c.Status()
			if err != nil {
				return err
			}
			if st.Session.Current == nil {
				return fmt.Errorf("no transform to adjust; session state is %s", st.Session.State)
			}
			t := *st.Session.Current
			if err := applyAdjustments(&t, translate, rotateDeg, scale); err != nil {
				return err
			}
			sess, err := c.Transform(t)
			if err != nil {
				return err
			}
			return printJSON(cmd, sess)
		},
	}
	transform.Flags().StringVar(&translate, "translate", "", "Translation offset x,y,z added to the current transform")
	transform.Flags().StringVar(&rotateDeg, "rotate-deg", "", "Extra yaw rotation in degrees")
	transform.Flags().StringVar(&scale, "scale", "", "Uniform scale factor applied to the current scale")

	var buildingID string
	commit := &cobra.Command{Use: "commit", Short: "Persist the session transform", RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := client().Commit(buildingID)
		if err != nil {
			return err
		}
		return printJSON(cmd, sess)
	}}
	commit.Flags().StringVar(&buildingID, "building", "", "Building to link the model to on first commit")

	cancel := &cobra.Command{Use: "cancel", Short: "Abandon the alignment session", RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := client().Cancel()
		if err != nil {
			return err
		}
		return printJSON(cmd, sess)
	}}

	root.AddCommand(models, status, prefetch, placements, enter, transform, commit, cancel)
	return root
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// applyAdjustments applies the flag deltas onto t in place.
func applyAdjustments(t *types.Transform, translate, rotateDeg, scale string) error {
	if translate != "" {
		parts := strings.Split(translate, ",")
		if len(parts) != 3 {
			return fmt.Errorf("--translate must be x,y,z")
		}
		for i, p := range parts {
			f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
			if err != nil {
				return fmt.Errorf("--translate: %w", err)
			}
			t.Translation[i] += f
		}
	}
	if rotateDeg != "" {
		deg, err := strconv.ParseFloat(rotateDeg, 64)
		if err != nil {
			return fmt.Errorf("--rotate-deg: %w", err)
		}
		rotateYaw(t, deg)
	}
	if scale != "" {
		f, err := strconv.ParseFloat(scale, 64)
		if err != nil {
			return fmt.Errorf("--scale: %w", err)
		}
		if f <= 0 {
			return fmt.Errorf("--scale must be positive")
		}
		for i := range t.Scale {
			t.Scale[i] *= f
		}
	}
	return nil
}

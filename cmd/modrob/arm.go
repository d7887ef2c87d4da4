package main

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
	"github.com/san-kum/modrob/internal/control"
	"github.com/san-kum/modrob/internal/dynamics"
	"github.com/san-kum/modrob/internal/kinematics"
	"github.com/san-kum/modrob/internal/lie"
	"github.com/san-kum/modrob/internal/trajectory"
	"github.com/san-kum/modrob/internal/viz"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"
)

// armFlags are shared by the one-shot kinematics and dynamics commands.
type armFlags struct {
	theta, dtheta, ddtheta []float64
	tau                    []float64
	frame                  string
}

func (f *armFlags) register(cmd *cobra.Command, names ...string) {
	for _, name := range names {
		switch name {
		case "theta":
			cmd.Flags().Float64SliceVar(&f.theta, "theta", nil, "joint angles (default initial state)")
		case "dtheta":
			cmd.Flags().Float64SliceVar(&f.dtheta, "dtheta", nil, "joint rates (default initial state)")
		case "ddtheta":
			cmd.Flags().Float64SliceVar(&f.ddtheta, "ddtheta", nil, "joint accelerations (default zero)")
		case "tau":
			cmd.Flags().Float64SliceVar(&f.tau, "tau", nil, "joint torques (default zero)")
		case "frame":
			cmd.Flags().StringVar(&f.frame, "frame", "space", "space or body")
		}
	}
}

// arm is the resolved chain together with the values a command works on.
type arm struct {
	chain   *dynamics.Chain
	gravity []float64
	tip     []float64
	theta   []float64
	dtheta  []float64
	ddtheta []float64
	tau     []float64
	frame   kinematics.Frame
}

func (f *armFlags) resolve() (*arm, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	chain, err := cfg.BuildChain()
	if err != nil {
		return nil, err
	}
	n := chain.Joints()
	a := &arm{chain: chain, gravity: cfg.Gravity, tip: cfg.TipWrench}
	pick := func(name string, v, def []float64) ([]float64, error) {
		if v == nil {
			v = def
		}
		if v == nil {
			v = make([]float64, n)
		}
		if len(v) != n {
			return nil, errors.Errorf("--%s has %d values, the arm has %d joints", name, len(v), n)
		}
		return v, nil
	}
	if a.theta, err = pick("theta", f.theta, cfg.InitState.Theta); err != nil {
		return nil, err
	}
	if a.dtheta, err = pick("dtheta", f.dtheta, cfg.InitState.Dtheta); err != nil {
		return nil, err
	}
	if a.ddtheta, err = pick("ddtheta", f.ddtheta, nil); err != nil {
		return nil, err
	}
	if a.tau, err = pick("tau", f.tau, nil); err != nil {
		return nil, err
	}
	a.frame = kinematics.Space
	if f.frame != "" {
		if a.frame, err = kinematics.ParseFrame(f.frame); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// axes returns the joint screws in the requested frame together with the
// home configuration.
func (a *arm) axes() (axes, M *mat.Dense) {
	M = a.chain.HomeConfiguration()
	if a.frame == kinematics.Space {
		return mat.DenseCopyOf(a.chain.Slist), M
	}
	var B mat.Dense
	B.Mul(lie.Adjoint(lie.TransInv(M)), a.chain.Slist)
	return &B, M
}

func armCommands() []*cobra.Command {
	var fkFlags armFlags
	fkCmd := &cobra.Command{
		Use:   "fk",
		Short: "end-effector pose for joint angles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := fkFlags.resolve()
			if err != nil {
				return err
			}
			axes, M := a.axes()
			fmt.Print(viz.FormatMatrix("T", kinematics.ForwardKinematics(a.frame, M, axes, a.theta)))
			return nil
		},
	}
	fkFlags.register(fkCmd, "theta", "frame")

	var jacFlags armFlags
	jacCmd := &cobra.Command{
		Use:   "jacobian",
		Short: "Jacobian and manipulability at joint angles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := jacFlags.resolve()
			if err != nil {
				return err
			}
			axes, _ := a.axes()
			J := kinematics.Jacobian(a.frame, axes, a.theta)
			fmt.Print(viz.FormatMatrix("J", J))
			measure, cond := kinematics.Manipulability(J)
			fmt.Printf("manipulability: %.6g\ncondition: %.6g\n", measure, cond)
			return nil
		},
	}
	jacFlags.register(jacCmd, "theta", "frame")

	var (
		ikFlags  armFlags
		goal     []float64
		pose     []float64
		eomg, ev float64
	)
	ikCmd := &cobra.Command{
		Use:   "ik",
		Short: "joint angles reaching a pose",
		Long: "Solve for joint angles reaching --pose, a row-major 4x4 transform, or the pose\n" +
			"of the arm at --goal angles. --theta is the initial guess.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ikFlags.resolve()
			if err != nil {
				return err
			}
			axes, M := a.axes()
			var T *mat.Dense
			switch {
			case pose != nil:
				if len(pose) != 16 {
					return errors.Errorf("--pose needs 16 values, got %d", len(pose))
				}
				T = mat.NewDense(4, 4, pose)
			case goal != nil:
				if len(goal) != len(a.theta) {
					return errors.Errorf("--goal has %d values, the arm has %d joints", len(goal), len(a.theta))
				}
				T = kinematics.ForwardKinematics(a.frame, M, axes, goal)
			default:
				return errors.New("one of --pose or --goal is required")
			}
			if !lie.TestIfSE3(T) {
				return errors.New("target is not a rigid transform")
			}
			theta, ok := kinematics.InverseKinematics(a.frame, axes, M, T, a.theta, eomg, ev)
			fmt.Printf("theta: %s\n", viz.FormatVector(theta))
			if !ok {
				fmt.Println("did not converge")
			}
			return nil
		},
	}
	ikFlags.register(ikCmd, "theta", "frame")
	ikCmd.Flags().Float64SliceVar(&goal, "goal", nil, "joint angles whose pose is the target")
	ikCmd.Flags().Float64SliceVar(&pose, "pose", nil, "target transform, 16 values row-major")
	ikCmd.Flags().Float64Var(&eomg, "eomg", 1e-3, "orientation tolerance")
	ikCmd.Flags().Float64Var(&ev, "ev", 1e-4, "position tolerance")

	var idFlags armFlags
	idCmd := &cobra.Command{
		Use:   "id",
		Short: "joint torques for a motion (inverse dynamics)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := idFlags.resolve()
			if err != nil {
				return err
			}
			c := a.chain
			fmt.Printf("tau:         %s\n", viz.FormatVector(c.InverseDynamics(a.theta, a.dtheta, a.ddtheta, a.gravity, a.tip)))
			fmt.Printf("gravity:     %s\n", viz.FormatVector(c.GravityForces(a.theta, a.gravity)))
			fmt.Printf("coriolis:    %s\n", viz.FormatVector(c.VelQuadraticForces(a.theta, a.dtheta)))
			if a.tip != nil {
				fmt.Printf("tip wrench:  %s\n", viz.FormatVector(c.EndEffectorForces(a.theta, a.tip)))
			}
			return nil
		},
	}
	idFlags.register(idCmd, "theta", "dtheta", "ddtheta")

	var fdFlags armFlags
	fdCmd := &cobra.Command{
		Use:   "fd",
		Short: "joint accelerations for torques (forward dynamics)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := fdFlags.resolve()
			if err != nil {
				return err
			}
			ddtheta, err := a.chain.ForwardDynamics(a.theta, a.dtheta, a.tau, a.gravity, a.tip)
			if err != nil {
				return err
			}
			fmt.Printf("ddtheta: %s\n", viz.FormatVector(ddtheta))
			return nil
		},
	}
	fdFlags.register(fdCmd, "theta", "dtheta", "tau")

	var massFlags armFlags
	massCmd := &cobra.Command{
		Use:   "mass",
		Short: "joint-space mass matrix",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := massFlags.resolve()
			if err != nil {
				return err
			}
			fmt.Print(viz.FormatMatrix("M", a.chain.MassMatrix(a.theta)))
			return nil
		},
	}
	massFlags.register(massCmd, "theta")

	return []*cobra.Command{fkCmd, jacCmd, ikCmd, idCmd, fdCmd, massCmd, trajCommand(), simulateCommand(), tuneCommand()}
}

func trajCommand() *cobra.Command {
	var (
		f      armFlags
		end    []float64
		tf     float64
		n      int
		method string
		space  string
	)
	cmd := &cobra.Command{
		Use:   "traj",
		Short: "sample a point-to-point trajectory",
		Long: "Sample a move from --theta to --end. With --space joint the joint angles are\n" +
			"interpolated; screw and cartesian interpolate the end-effector pose between\n" +
			"the two configurations.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := f.resolve()
			if err != nil {
				return err
			}
			if len(end) != len(a.theta) {
				return errors.Errorf("--end has %d values, the arm has %d joints", len(end), len(a.theta))
			}
			m, err := trajectory.ParseMethod(method)
			if err != nil {
				return err
			}

			if space == "joint" {
				traj, err := trajectory.JointTrajectory(a.theta, end, tf, n, m)
				if err != nil {
					return err
				}
				fmt.Println(viz.PlotJoints(traj, viz.PlotOptions{Width: 60, Height: 10, Caption: m.String() + " joint trajectory"}))
				return nil
			}

			axes, M := a.axes()
			Xs := kinematics.ForwardKinematics(a.frame, M, axes, a.theta)
			Xe := kinematics.ForwardKinematics(a.frame, M, axes, end)
			var poses []*mat.Dense
			switch space {
			case "screw":
				poses, err = trajectory.ScrewTrajectory(Xs, Xe, tf, n, m)
			case "cartesian":
				poses, err = trajectory.CartesianTrajectory(Xs, Xe, tf, n, m)
			default:
				return errors.Errorf("unknown trajectory space %q", space)
			}
			if err != nil {
				return err
			}
			path := mat.NewDense(len(poses), 3, nil)
			for i, X := range poses {
				path.SetRow(i, []float64{X.At(0, 3), X.At(1, 3), X.At(2, 3)})
			}
			fmt.Println(viz.PlotJoints(path, viz.PlotOptions{Width: 60, Height: 10, Caption: space + " end-effector x, y, z"}))
			fmt.Print(viz.FormatMatrix("X(Tf)", poses[len(poses)-1]))
			return nil
		},
	}
	f.register(cmd, "theta", "frame")
	cmd.Flags().Float64SliceVar(&end, "end", nil, "final joint angles")
	cmd.Flags().Float64Var(&tf, "tf", 1, "move duration")
	cmd.Flags().IntVar(&n, "n", 50, "number of samples")
	cmd.Flags().StringVar(&method, "method", "quintic", "cubic or quintic time scaling")
	cmd.Flags().StringVar(&space, "space", "joint", "joint, screw or cartesian")
	return cmd
}

// simulateCommand runs the batch computed-torque loop, optionally planning
// with a model whose link masses are scaled to show the effect of model
// error.
func simulateCommand() *cobra.Command {
	var (
		massScale float64
		intRes    int
	)
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "batch computed-torque tracking of the configured reference",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			plant, err := cfg.BuildChain()
			if err != nil {
				return err
			}
			ref, err := cfg.BuildReference()
			if err != nil {
				return err
			}
			model := plant
			if massScale != 1 {
				model = scaledChain(plant, massScale)
			}
			var ftips *mat.Dense
			if cfg.TipWrench != nil {
				ftips = mat.NewDense(ref.Len(), 6, nil)
				for i := 0; i < ref.Len(); i++ {
					ftips.SetRow(i, cfg.TipWrench)
				}
			}
			loop := control.Loop{
				Plant:        plant,
				Gravity:      cfg.Gravity,
				Ftips:        ftips,
				Model:        model,
				ModelGravity: cfg.Gravity,
				Gains:        cfg.Gains,
				IntRes:       intRes,
			}
			logger.Debugw("simulating control", "rows", ref.Len(), "mass_scale", massScale, "int_res", intRes)
			taus, thetas, err := control.SimulateControl(loop, cfg.InitState.Theta, cfg.InitState.Dtheta, ref)
			if err != nil {
				return err
			}

			fmt.Println(viz.PlotJoints(thetas, viz.PlotOptions{Width: 60, Height: 10, Caption: "actual joint angles"}))
			fmt.Println(viz.PlotJoints(taus, viz.PlotOptions{Width: 60, Height: 10, Caption: "joint torques"}))
			last := ref.Len() - 1
			want, _, _ := ref.At(last)
			errNorm := 0.0
			for j, v := range thetas.RawRowView(last) {
				errNorm += (v - want[j]) * (v - want[j])
			}
			fmt.Printf("final tracking error: %.6g rad\n", math.Sqrt(errNorm))
			return nil
		},
	}
	cmd.Flags().Float64Var(&massScale, "mass-scale", 1, "scale link inertias of the controller's model")
	cmd.Flags().IntVar(&intRes, "int-res", 8, "integration substeps per reference row")
	return cmd
}

func scaledChain(c *dynamics.Chain, s float64) *dynamics.Chain {
	Glist := make([]mat.Matrix, len(c.Glist))
	for i, G := range c.Glist {
		var scaled mat.Dense
		scaled.Scale(s, G)
		Glist[i] = &scaled
	}
	return dynamics.NewChain(c.Mlist, Glist, c.Slist)
}

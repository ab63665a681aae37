package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"vtstaff/internal/api"
	"vtstaff/internal/config"
	"vtstaff/internal/domain"
	"vtstaff/internal/duty"
	"vtstaff/internal/location"
	"vtstaff/internal/media"
	"vtstaff/internal/secret"
)

// app wires the client-side dependencies for every subcommand.
type app struct {
	cfg     *config.Config
	secrets secret.Store
	client  *api.Client
}

func newApp() (*app, error) {
	cfg := config.Load()

	tokenPath := cfg.Secret.TokenPath
	if tokenPath == "" {
		path, err := secret.DefaultPath()
		if err != nil {
			return nil, fmt.Errorf("resolve token path: %w", err)
		}
		tokenPath = path
	}
	secrets := secret.NewFileStore(tokenPath)

	return &app{
		cfg:     cfg,
		secrets: secrets,
		client:  api.NewClient(cfg.API.BaseURL, cfg.API.Timeout, secrets),
	}, nil
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "vtstaff",
		Short:         "Driver duty client for the VTMS supervisor API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newLoginCommand(),
		newVerifyCommand(),
		newStatusCommand(),
		newStartDutyCommand(),
		newEndDutyCommand(),
		newLogoutCommand(),
	)
	return root
}

func newLoginCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "login <mobile-number>",
		Short: "Request a one-time code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			mobile := strings.TrimSpace(args[0])
			if mobile == "" {
				return errors.New("please enter mobile number")
			}
			if err := a.client.RequestCode(cmd.Context(), mobile); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "OTP sent to %s. Run: vtstaff verify %s <code>\n", mobile, mobile)
			return nil
		},
	}
}

func newVerifyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <mobile-number> <code>",
		Short: "Verify the one-time code and store the session token",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			token, err := a.client.VerifyCode(cmd.Context(), strings.TrimSpace(args[0]), strings.TrimSpace(args[1]))
			if err != nil {
				return err
			}
			if err := a.secrets.Set(token); err != nil {
				return fmt.Errorf("store token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged in.")
			return nil
		},
	}
}

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show current duty status and assigned booking",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			status, err := a.client.GetStatus(cmd.Context())
			if err != nil {
				return loginHint(err)
			}
			printStatus(cmd, status)
			return nil
		},
	}
}

func printStatus(cmd *cobra.Command, status *domain.DriverStatus) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Duty status: %s\n", status.DutyStatus)
	if status.DutyStatus == domain.DutyStatusOn {
		fmt.Fprintf(out, "On duty for: %s\n", domain.FormatDuration(status.Duration))
	}
	if status.VehicleDetails != nil {
		fmt.Fprintf(out, "Vehicle:     %s\n", status.VehicleDetails.Registration)
	} else if !status.HasVehicle {
		fmt.Fprintln(out, "Vehicle:     none assigned")
	}
	if status.Booking != nil {
		fmt.Fprintf(out, "Booking:     %s\n", status.Booking.BookingID)
		fmt.Fprintf(out, "User:        %s (%s)\n", status.Booking.UserName, status.Booking.UserPhone)
	} else {
		fmt.Fprintln(out, "Booking:     none assigned")
	}
}

type dutyFlags struct {
	odometer  string
	photo     string
	latitude  float64
	longitude float64
}

func (f *dutyFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.odometer, "odometer", "", "odometer reading (prompted when omitted)")
	cmd.Flags().StringVar(&f.photo, "photo", "", "path to the odometer photo")
	cmd.Flags().Float64Var(&f.latitude, "lat", 0, "current latitude")
	cmd.Flags().Float64Var(&f.longitude, "lng", 0, "current longitude")
}

// positionSource builds the fix source from the flags. Without explicit
// coordinates there is nothing to fix against on this host and both
// resolution tiers will exhaust.
func (f *dutyFlags) positionSource(cmd *cobra.Command) *location.StaticSource {
	if !cmd.Flags().Changed("lat") || !cmd.Flags().Changed("lng") {
		return &location.StaticSource{}
	}
	return &location.StaticSource{Position: &domain.Coordinates{
		Latitude:  f.latitude,
		Longitude: f.longitude,
	}}
}

func newStartDutyCommand() *cobra.Command {
	flags := &dutyFlags{}
	cmd := &cobra.Command{
		Use:   "start-duty",
		Short: "Submit a start-of-duty event (odometer, photo, position)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			status, err := a.client.GetStatus(ctx)
			if err != nil {
				return loginHint(err)
			}

			flow := a.newFlow(flags.positionSource(cmd))
			form, err := flow.PrepareStart(ctx, status)
			if err != nil {
				return err
			}

			photo, err := pickPhoto(ctx, flags.photo)
			if err != nil {
				return err
			}
			if photo == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "No photo selected, duty not started.")
				return nil
			}
			form.Photo = photo

			form.OdometerReading, err = readOdometer(cmd, flags.odometer)
			if err != nil {
				return err
			}

			if err := flow.SubmitStart(ctx, form); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Duty started successfully.")
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func newEndDutyCommand() *cobra.Command {
	flags := &dutyFlags{}
	cmd := &cobra.Command{
		Use:   "end-duty",
		Short: "Submit an end-of-duty event (odometer, photo, position)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			status, err := a.client.GetStatus(ctx)
			if err != nil {
				return loginHint(err)
			}

			flow := a.newFlow(flags.positionSource(cmd))
			form, err := flow.PrepareEnd(ctx, status)
			if err != nil {
				return err
			}

			photo, err := pickPhoto(ctx, flags.photo)
			if err != nil {
				return err
			}
			if photo == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "No photo selected, duty not ended.")
				return nil
			}
			form.Photo = photo

			form.OdometerReading, err = readOdometer(cmd, flags.odometer)
			if err != nil {
				return err
			}

			if err := flow.SubmitEnd(ctx, form); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Duty ended successfully.")
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func newLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Discard the stored session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			if err := a.secrets.Clear(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		},
	}
}

func (a *app) newFlow(source location.FixSource) *duty.Flow {
	resolver := location.NewResolverWithTiers(source, a.cfg.Location.High, a.cfg.Location.Low)
	return duty.NewFlow(a.client, &media.JPEGTranscoder{}, resolver, location.GrantedGate{})
}

// pickPhoto runs the media pipeline over a file path. An empty path is a
// cancellation, mirroring a dismissed chooser.
func pickPhoto(ctx context.Context, path string) (*domain.Photo, error) {
	picker := media.NewPicker(&media.FileChooser{Path: path}, media.GrantedGate{})
	return picker.PickFromGallery(ctx)
}

func readOdometer(cmd *cobra.Command, fromFlag string) (string, error) {
	if strings.TrimSpace(fromFlag) != "" {
		return strings.TrimSpace(fromFlag), nil
	}
	fmt.Fprint(cmd.OutOrStdout(), "Odometer reading: ")
	reader := bufio.NewReader(cmd.InOrStdin())
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// loginHint decorates authentication failures with the way out.
func loginHint(err error) error {
	if errors.Is(err, api.ErrUnauthorized) {
		return fmt.Errorf("%w (run `vtstaff login <mobile-number>` to sign in again)", err)
	}
	return err
}

package cloud

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
)

// WritePLY re-serializes a record as ASCII PLY. Only the channels the source
// file carried are written back; the synthesized gray fill never leaks into
// the output.
func WritePLY(w io.Writer, rec *Record) error {
	out := bufio.NewWriter(w)

	fmt.Fprintf(out, "ply\nformat ascii 1.0\n")
	fmt.Fprintf(out, "element vertex %d\n", rec.Size())
	fmt.Fprintf(out, "property double x\nproperty double y\nproperty double z\n")
	if rec.HasSourceNormals {
		fmt.Fprintf(out, "property double nx\nproperty double ny\nproperty double nz\n")
	}
	if rec.HasSourceColors {
		fmt.Fprintf(out, "property uchar red\nproperty uchar green\nproperty uchar blue\n")
	}
	if _, err := fmt.Fprintf(out, "end_header\n"); err != nil {
		return err
	}

	for i, p := range rec.Points {
		writeFloat(out, p.X)
		out.WriteByte(' ')
		writeFloat(out, p.Y)
		out.WriteByte(' ')
		writeFloat(out, p.Z)
		if rec.HasSourceNormals {
			n := rec.Normals[i]
			out.WriteByte(' ')
			writeFloat(out, n.X)
			out.WriteByte(' ')
			writeFloat(out, n.Y)
			out.WriteByte(' ')
			writeFloat(out, n.Z)
		}
		if rec.HasSourceColors {
			c := rec.Colors[i]
			fmt.Fprintf(out, " %d %d %d", channelByte(c.R), channelByte(c.G), channelByte(c.B))
		}
		if err := out.WriteByte('\n'); err != nil {
			return err
		}
	}
	return out.Flush()
}

func writeFloat(out *bufio.Writer, v float64) {
	out.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
}

// channelByte maps a [0,1] channel back to 0-255, truncating like the
// display path does.
func channelByte(c float64) int {
	n := int(c * 255)
	if n < 0 {
		return 0
	}
	if n > 255 {
		return 255
	}
	return n
}
